package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// keyLocks serializes work per (portfolioID, symbol) key. Operations on
// different keys never contend; a single global lock would serialize
// unrelated portfolios.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

func holdingKey(portfolioID uuid.UUID, symbol string) string {
	return portfolioID.String() + ":" + symbol
}

func (k *keyLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}
