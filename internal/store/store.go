package store

import (
	"context"
	"errors"

	"tracker-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a holding, portfolio or transaction does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract the ledger and services are written
// against. Every operation is atomic per key; Atomically groups several
// operations into one all-or-nothing unit.
type Store interface {
	GetHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) (*models.Holding, error)
	PutHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) error
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error)
	ListBySymbol(ctx context.Context, symbol string) ([]models.Holding, error)

	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, portfolioID uuid.UUID, symbol string) ([]models.Transaction, error)

	CreatePortfolio(ctx context.Context, p *models.Portfolio) error
	GetPortfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error)
	PutPortfolio(ctx context.Context, p *models.Portfolio) error
	ListPortfolios(ctx context.Context) ([]models.Portfolio, error)

	// Atomically runs fn against a store view whose writes commit together or
	// not at all.
	Atomically(ctx context.Context, fn func(Store) error) error
}
