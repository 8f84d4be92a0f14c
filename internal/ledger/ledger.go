package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"tracker-backend/internal/marketdata"
	"tracker-backend/internal/models"
	"tracker-backend/internal/store"
	"tracker-backend/internal/valuation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// avgPriceScale is the minor-unit precision the weighted-average cost is
// rounded to (round-half-up).
const avgPriceScale = 2

const refreshTimeout = 15 * time.Second

// PriceSource is the slice of the price cache the ledger needs for
// post-transaction valuation refreshes.
type PriceSource interface {
	GetOrFetch(ctx context.Context, symbol string) (marketdata.StockPrice, error)
}

// Request describes a BUY or SELL to execute. Id, timestamp and currency
// defaulting are the ledger's job, never the caller's.
type Request struct {
	PortfolioID  uuid.UUID
	Symbol       string
	Type         string
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	Currency     string
}

// Ledger applies BUY/SELL transactions against holdings. Transactions on the
// same (portfolio, symbol) key are serialized; different keys run in parallel.
// A failed transaction leaves no trace: holding, portfolio accumulator and
// transaction log commit together or not at all.
type Ledger struct {
	store        store.Store
	prices       PriceSource
	baseCurrency string
	locks        *keyLocks
	log          zerolog.Logger
}

func New(st store.Store, prices PriceSource, baseCurrency string, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:        st,
		prices:       prices,
		baseCurrency: baseCurrency,
		locks:        newKeyLocks(),
		log:          log.With().Str("component", "transaction_ledger").Logger(),
	}
}

// Execute runs a transaction to completion and returns the immutable record.
// On success a background refresh brings the holding's valuation fields up to
// date with current market data; the refresh may complete after Execute returns.
func (l *Ledger) Execute(ctx context.Context, req Request) (*models.Transaction, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	txType := strings.ToUpper(strings.TrimSpace(req.Type))
	if txType != models.TxTypeBuy && txType != models.TxTypeSell {
		return nil, ErrInvalidTransactionType
	}

	currency := req.Currency
	if currency == "" {
		currency = l.baseCurrency
	}

	tx := &models.Transaction{
		ID:           uuid.New(),
		PortfolioID:  req.PortfolioID,
		Symbol:       symbol,
		Type:         txType,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Currency:     currency,
		ExecutedAt:   time.Now().UTC(),
	}

	key := holdingKey(req.PortfolioID, symbol)
	lock := l.locks.get(key)
	lock.Lock()

	var holdingSurvives bool
	err := l.store.Atomically(ctx, func(s store.Store) error {
		var applyErr error
		if txType == models.TxTypeBuy {
			holdingSurvives, applyErr = l.applyBuy(ctx, s, tx)
		} else {
			holdingSurvives, applyErr = l.applySell(ctx, s, tx)
		}
		if applyErr != nil {
			return applyErr
		}
		return s.AppendTransaction(ctx, tx)
	})
	lock.Unlock()

	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("type", txType).
		Str("symbol", symbol).
		Str("portfolio_id", req.PortfolioID.String()).
		Str("quantity", req.Quantity.String()).
		Str("price", req.PricePerUnit.String()).
		Msg("Executed transaction")

	if holdingSurvives {
		go func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			if err := l.RefreshHolding(refreshCtx, req.PortfolioID, symbol); err != nil {
				l.log.Warn().Err(err).Str("symbol", symbol).Msg("Post-transaction valuation refresh failed")
			}
		}()
	}

	return tx, nil
}

func (l *Ledger) applyBuy(ctx context.Context, s store.Store, tx *models.Transaction) (bool, error) {
	holding, err := s.GetHolding(ctx, tx.PortfolioID, tx.Symbol)
	switch {
	case errors.Is(err, store.ErrNotFound):
		holding = &models.Holding{
			PortfolioID: tx.PortfolioID,
			Symbol:      tx.Symbol,
			Name:        tx.Symbol,
			Quantity:    tx.Quantity,
			AvgPrice:    tx.PricePerUnit,
		}
	case err != nil:
		return false, err
	default:
		// Weighted-average cost over the combined position, rounded to the
		// currency's minor unit. Quantity itself is never rounded.
		currentValue := holding.Quantity.Mul(holding.AvgPrice)
		addedValue := tx.Quantity.Mul(tx.PricePerUnit)
		totalQuantity := holding.Quantity.Add(tx.Quantity)
		holding.AvgPrice = currentValue.Add(addedValue).DivRound(totalQuantity, avgPriceScale)
		holding.Quantity = totalQuantity
	}

	return true, s.PutHolding(ctx, holding)
}

func (l *Ledger) applySell(ctx context.Context, s store.Store, tx *models.Transaction) (bool, error) {
	holding, err := s.GetHolding(ctx, tx.PortfolioID, tx.Symbol)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrHoldingNotFound
	}
	if err != nil {
		return false, err
	}

	if tx.Quantity.GreaterThan(holding.Quantity) {
		return false, ErrInsufficientQuantity
	}

	costBasis := holding.AvgPrice.Mul(tx.Quantity)
	proceeds := tx.PricePerUnit.Mul(tx.Quantity)
	realized := proceeds.Sub(costBasis)
	tx.RealizedProfit = &realized

	portfolio, err := s.GetPortfolio(ctx, tx.PortfolioID)
	if err == nil {
		portfolio.RealizedProfit = portfolio.RealizedProfit.Add(realized)
		if err := s.PutPortfolio(ctx, portfolio); err != nil {
			return false, err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	newQuantity := holding.Quantity.Sub(tx.Quantity)
	if newQuantity.IsZero() {
		// A zero-quantity holding is removed, never persisted as a zero row.
		return false, s.DeleteHolding(ctx, tx.PortfolioID, tx.Symbol)
	}

	// A sell never changes the average cost.
	holding.Quantity = newQuantity
	return true, s.PutHolding(ctx, holding)
}

// RefreshHolding recomputes a holding's market price, value and unrealized
// profit from the freshest available price. It serializes with Execute on the
// same key. An unavailable price degrades to the stale valuation, not an error.
func (l *Ledger) RefreshHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) error {
	symbol = strings.ToUpper(symbol)

	price, err := l.prices.GetOrFetch(ctx, symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrPriceUnavailable) {
			l.log.Debug().Str("symbol", symbol).Msg("No price available, valuation left as-is")
			return nil
		}
		return err
	}

	lock := l.locks.get(holdingKey(portfolioID, symbol))
	lock.Lock()
	defer lock.Unlock()

	holding, err := l.store.GetHolding(ctx, portfolioID, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	marketPrice := price.Price
	result := valuation.Valuate(holding, &marketPrice)
	holding.MarketPrice = &marketPrice
	holding.InstrumentCurrency = l.baseCurrency
	holding.Value = result.Value
	holding.UnrealizedProfit = result.UnrealizedProfit

	return l.store.PutHolding(ctx, holding)
}

// Transactions lists the portfolio's ledger, optionally filtered by symbol.
func (l *Ledger) Transactions(ctx context.Context, portfolioID uuid.UUID, symbol string) ([]models.Transaction, error) {
	return l.store.ListTransactions(ctx, portfolioID, symbol)
}
