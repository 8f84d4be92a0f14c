package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tracker-backend/internal/models"

	"github.com/google/uuid"
)

// MemStore is a thread-safe in-memory Store, used when no database is
// configured and in tests. Holdings are keyed "portfolioID:SYMBOL".
type MemStore struct {
	mu         sync.RWMutex
	holdings   map[string]models.Holding
	portfolios map[uuid.UUID]models.Portfolio
	txs        []models.Transaction

	// txMu serializes Atomically blocks; rollback restores a snapshot.
	txMu sync.Mutex
}

func NewMemStore() *MemStore {
	return &MemStore{
		holdings:   make(map[string]models.Holding),
		portfolios: make(map[uuid.UUID]models.Portfolio),
	}
}

func memKey(portfolioID uuid.UUID, symbol string) string {
	return portfolioID.String() + ":" + strings.ToUpper(symbol)
}

func (m *MemStore) GetHolding(_ context.Context, portfolioID uuid.UUID, symbol string) (*models.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.holdings[memKey(portfolioID, symbol)]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (m *MemStore) PutHolding(_ context.Context, h *models.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.Symbol = strings.ToUpper(h.Symbol)
	m.holdings[memKey(h.PortfolioID, h.Symbol)] = *h
	return nil
}

func (m *MemStore) DeleteHolding(_ context.Context, portfolioID uuid.UUID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holdings, memKey(portfolioID, symbol))
	return nil
}

func (m *MemStore) ListByPortfolio(_ context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Holding
	for _, h := range m.holdings {
		if h.PortfolioID == portfolioID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *MemStore) ListBySymbol(_ context.Context, symbol string) ([]models.Holding, error) {
	symbol = strings.ToUpper(symbol)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Holding
	for _, h := range m.holdings {
		if h.Symbol == symbol {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MemStore) AppendTransaction(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *MemStore) ListTransactions(_ context.Context, portfolioID uuid.UUID, symbol string) ([]models.Transaction, error) {
	symbol = strings.ToUpper(symbol)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.PortfolioID != portfolioID {
			continue
		}
		if symbol != "" && tx.Symbol != symbol {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.After(out[j].ExecutedAt) })
	return out, nil
}

func (m *MemStore) CreatePortfolio(_ context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios[p.ID] = *p
	return nil
}

func (m *MemStore) GetPortfolio(_ context.Context, id uuid.UUID) (*models.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.portfolios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) PutPortfolio(_ context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios[p.ID] = *p
	return nil
}

func (m *MemStore) ListPortfolios(_ context.Context) ([]models.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Portfolio, 0, len(m.portfolios))
	for _, p := range m.portfolios {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Atomically serializes the block and rolls every map back if fn fails.
// Coarser than the per-key contract requires, which is fine for the
// in-memory engine.
func (m *MemStore) Atomically(_ context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapHoldings, snapPortfolios, snapTxs := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snapHoldings, snapPortfolios, snapTxs)
		return err
	}
	return nil
}

func (m *MemStore) snapshot() (map[string]models.Holding, map[uuid.UUID]models.Portfolio, []models.Transaction) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	holdings := make(map[string]models.Holding, len(m.holdings))
	for k, v := range m.holdings {
		holdings[k] = v
	}
	portfolios := make(map[uuid.UUID]models.Portfolio, len(m.portfolios))
	for k, v := range m.portfolios {
		portfolios[k] = v
	}
	txs := make([]models.Transaction, len(m.txs))
	copy(txs, m.txs)
	return holdings, portfolios, txs
}

func (m *MemStore) restore(holdings map[string]models.Holding, portfolios map[uuid.UUID]models.Portfolio, txs []models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdings = holdings
	m.portfolios = portfolios
	m.txs = txs
}
