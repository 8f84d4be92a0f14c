package marketdata

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrPriceUnavailable means neither the cache nor the fallback fetch
	// produced a price. Callers degrade to stale/zero valuation.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrFeedDisconnected is transient; the feed reconnects on its own and it
	// is never surfaced to price-read callers.
	ErrFeedDisconnected = errors.New("feed disconnected")
)

// StockPrice is an ephemeral cache entry sourced from the feed (or seeded by a
// fallback quote). Timestamp is feed-supplied, epoch milliseconds.
type StockPrice struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
	Volume    float64         `json:"volume"`
}

// Trade is one record of an inbound trade frame.
type Trade struct {
	Symbol    string          `json:"s"`
	Price     decimal.Decimal `json:"p"`
	Timestamp int64           `json:"t"`
	Volume    float64         `json:"v"`
}

// inboundMessage is the envelope of every feed frame.
type inboundMessage struct {
	Type string  `json:"type"`
	Data []Trade `json:"data"`
}

// controlFrame is an outbound subscribe/unsubscribe frame.
type controlFrame struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// Quote is the fallback REST quote response (Finnhub /quote shape).
type Quote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	PercentChange decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}
