package marketdata

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// FrameSender is the slice of the feed the cache drives: best-effort
// subscribe/unsubscribe frames.
type FrameSender interface {
	Subscribe(symbol string)
	Unsubscribe(symbol string)
}

// QuoteFetcher is the fallback quote source used by GetOrFetch.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// Listener receives price updates for a symbol.
type Listener func(StockPrice)

// Cache owns subscription state, the last-known-price cache and listener
// registration, and mediates all traffic to and from the feed.
//
// A symbol is subscribed iff its interest count is >= 1. Price updates for
// symbols with zero interest are dropped, not cached. All reads are O(1) and
// never touch the network; GetOrFetch performs its fallback fetch outside the
// lock.
type Cache struct {
	mu        sync.RWMutex
	prices    map[string]StockPrice
	interest  map[string]int
	listeners map[string]map[int64]Listener
	nextID    int64

	feed   FrameSender
	quotes QuoteFetcher
	log    zerolog.Logger
}

func NewCache(feed FrameSender, quotes QuoteFetcher, log zerolog.Logger) *Cache {
	return &Cache{
		prices:    make(map[string]StockPrice),
		interest:  make(map[string]int),
		listeners: make(map[string]map[int64]Listener),
		feed:      feed,
		quotes:    quotes,
		log:       log.With().Str("component", "price_cache").Logger(),
	}
}

// LatestPrice returns the cached price for a symbol, if any. No side effects.
func (c *Cache) LatestPrice(symbol string) (StockPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[strings.ToUpper(symbol)]
	return p, ok
}

// Subscribe increments interest in a symbol. The subscribe frame is sent only
// on the unsubscribed-to-subscribed transition, so concurrent calls cannot
// double-subscribe.
func (c *Cache) Subscribe(symbol string) {
	sym := strings.ToUpper(symbol)

	c.mu.Lock()
	c.interest[sym]++
	transition := c.interest[sym] == 1
	c.mu.Unlock()

	if transition {
		c.feed.Subscribe(sym)
		c.log.Info().Str("symbol", sym).Msg("Subscribed to realtime updates")
	}
}

// Unsubscribe decrements interest in a symbol. When interest reaches zero the
// unsubscribe frame is sent and the cached price is evicted, so a stale price
// is never served after full unsubscription. Idempotent at zero.
func (c *Cache) Unsubscribe(symbol string) {
	sym := strings.ToUpper(symbol)

	c.mu.Lock()
	if c.interest[sym] == 0 {
		c.mu.Unlock()
		return
	}
	c.interest[sym]--
	transition := c.interest[sym] == 0
	if transition {
		delete(c.interest, sym)
		delete(c.prices, sym)
	}
	c.mu.Unlock()

	if transition {
		c.feed.Unsubscribe(sym)
		c.log.Info().Str("symbol", sym).Msg("Unsubscribed from realtime updates")
	}
}

// AddListener registers a callback for price updates of a symbol and
// implicitly subscribes. The returned id is used to remove the listener.
func (c *Cache) AddListener(symbol string, fn Listener) int64 {
	sym := strings.ToUpper(symbol)

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.listeners[sym] == nil {
		c.listeners[sym] = make(map[int64]Listener)
	}
	c.listeners[sym][id] = fn
	c.mu.Unlock()

	c.Subscribe(sym)
	return id
}

// RemoveListener drops a listener; removing it releases its interest, so the
// last listener's removal implicitly unsubscribes the symbol.
func (c *Cache) RemoveListener(symbol string, id int64) {
	sym := strings.ToUpper(symbol)

	c.mu.Lock()
	set, ok := c.listeners[sym]
	if ok {
		if _, ok = set[id]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(c.listeners, sym)
			}
		}
	}
	c.mu.Unlock()

	if ok {
		c.Unsubscribe(sym)
	}
}

// GetOrFetch returns the cached price if present; otherwise it performs a
// synchronous fallback quote fetch and, on success, opportunistically
// subscribes for future pushes. Failure surfaces as ErrPriceUnavailable,
// never as a stale zero.
func (c *Cache) GetOrFetch(ctx context.Context, symbol string) (StockPrice, error) {
	sym := strings.ToUpper(symbol)

	if p, ok := c.LatestPrice(sym); ok {
		return p, nil
	}

	quote, err := c.quotes.Quote(ctx, sym)
	if err != nil {
		return StockPrice{}, ErrPriceUnavailable
	}

	c.Subscribe(sym)

	fetched := StockPrice{
		Symbol:    sym,
		Price:     quote.Current,
		Timestamp: quote.Timestamp,
	}

	// Seed the cache, but never clobber a fresher push-sourced entry that
	// raced in while the fetch was in flight.
	c.mu.Lock()
	current, ok := c.prices[sym]
	if !ok {
		if _, interested := c.interest[sym]; interested {
			c.prices[sym] = fetched
		}
		current = fetched
	}
	c.mu.Unlock()

	return current, nil
}

// HandleTrades is the feed-to-cache update path. Each trade upserts the price
// for its symbol and notifies the symbol's listeners; a panicking listener is
// isolated and never prevents delivery to the others.
func (c *Cache) HandleTrades(trades []Trade) {
	for _, t := range trades {
		sym := strings.ToUpper(t.Symbol)

		c.mu.Lock()
		if _, interested := c.interest[sym]; !interested {
			// Stray push data for a symbol nobody asked for.
			c.mu.Unlock()
			continue
		}
		price := StockPrice{
			Symbol:    sym,
			Price:     t.Price,
			Timestamp: t.Timestamp,
			Volume:    t.Volume,
		}
		c.prices[sym] = price
		snapshot := make([]Listener, 0, len(c.listeners[sym]))
		for _, fn := range c.listeners[sym] {
			snapshot = append(snapshot, fn)
		}
		c.mu.Unlock()

		for _, fn := range snapshot {
			c.notify(sym, fn, price)
		}
	}
}

func (c *Cache) notify(symbol string, fn Listener, price StockPrice) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("symbol", symbol).Msg("Price listener panicked")
		}
	}()
	fn(price)
}

// SubscribedSymbols returns every symbol with nonzero interest, used to replay
// subscriptions after a reconnect.
func (c *Cache) SubscribedSymbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	symbols := make([]string, 0, len(c.interest))
	for sym := range c.interest {
		symbols = append(symbols, sym)
	}
	return symbols
}
