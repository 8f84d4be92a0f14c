package portfolios

import (
	"context"
	"errors"

	"tracker-backend/internal/ledger"
	"tracker-backend/internal/models"
	"tracker-backend/internal/store"
	"tracker-backend/internal/valuation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound means the portfolio id does not exist.
var ErrNotFound = errors.New("portfolio not found")

// Service manages portfolios and their aggregated valuation.
type Service struct {
	Store        store.Store
	Ledger       *ledger.Ledger
	BaseCurrency string // default when a create request names none
}

func (s *Service) Create(ctx context.Context, name, baseCurrency string) (*models.Portfolio, error) {
	if baseCurrency == "" {
		baseCurrency = s.BaseCurrency
	}
	p := &models.Portfolio{
		ID:             uuid.New(),
		Name:           name,
		BaseCurrency:   baseCurrency,
		RealizedProfit: decimal.Zero,
	}
	if err := s.Store.CreatePortfolio(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Portfolio, error) {
	p, err := s.Store.GetPortfolio(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]models.Portfolio, error) {
	return s.Store.ListPortfolios(ctx)
}

// Summary refreshes every holding's valuation, then aggregates totals. Absent
// prices contribute zero value rather than failing the summary.
func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*valuation.Summary, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	holdings, err := s.Store.ListByPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range holdings {
		if err := s.Ledger.RefreshHolding(ctx, id, holdings[i].Symbol); err != nil {
			return nil, err
		}
	}
	holdings, err = s.Store.ListByPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}

	// The accumulator may have moved while holdings were refreshed.
	p, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := valuation.Summarize(p, holdings)
	return &summary, nil
}
