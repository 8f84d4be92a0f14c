package holdings

import (
	"context"
	"errors"

	"tracker-backend/internal/ledger"
	"tracker-backend/internal/models"
	"tracker-backend/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound means no holding exists for the (portfolio, symbol) key.
var ErrNotFound = errors.New("holding not found")

// CreateRequest is an explicit holding creation (seeding an existing position
// without a transaction).
type CreateRequest struct {
	PortfolioID uuid.UUID
	Symbol      string
	Name        string
	Quantity    decimal.Decimal
	AvgPrice    decimal.Decimal
}

// Service reads holdings and keeps their valuation fields fresh. All holding
// mutation beyond explicit creation goes through the ledger.
type Service struct {
	Store  store.Store
	Ledger *ledger.Ledger
}

// Create persists a holding and refreshes its market valuation immediately.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Holding, error) {
	h := &models.Holding{
		PortfolioID: req.PortfolioID,
		Symbol:      req.Symbol,
		Name:        req.Name,
		Quantity:    req.Quantity,
		AvgPrice:    req.AvgPrice,
	}
	if h.Name == "" {
		h.Name = h.Symbol
	}
	if err := s.Store.PutHolding(ctx, h); err != nil {
		return nil, err
	}
	if err := s.Ledger.RefreshHolding(ctx, req.PortfolioID, req.Symbol); err != nil {
		return nil, err
	}
	return s.get(ctx, req.PortfolioID, req.Symbol)
}

// Get returns a holding with its market price refreshed. A missing price
// degrades to the stored valuation; a missing holding is ErrNotFound.
func (s *Service) Get(ctx context.Context, portfolioID uuid.UUID, symbol string) (*models.Holding, error) {
	if _, err := s.get(ctx, portfolioID, symbol); err != nil {
		return nil, err
	}
	if err := s.Ledger.RefreshHolding(ctx, portfolioID, symbol); err != nil {
		return nil, err
	}
	return s.get(ctx, portfolioID, symbol)
}

// List returns all holdings of a portfolio, refreshing each valuation first.
func (s *Service) List(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	holdings, err := s.Store.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	for i := range holdings {
		if err := s.Ledger.RefreshHolding(ctx, portfolioID, holdings[i].Symbol); err != nil {
			return nil, err
		}
	}
	return s.Store.ListByPortfolio(ctx, portfolioID)
}

func (s *Service) get(ctx context.Context, portfolioID uuid.UUID, symbol string) (*models.Holding, error) {
	h, err := s.Store.GetHolding(ctx, portfolioID, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}
