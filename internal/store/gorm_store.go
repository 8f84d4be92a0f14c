package store

import (
	"context"
	"errors"
	"strings"

	"tracker-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store over a GORM connection (Postgres in production,
// in-memory sqlite in tests).
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) (*models.Holding, error) {
	var h models.Holding
	err := s.DB.WithContext(ctx).
		Where("portfolio_id = ? AND symbol = ?", portfolioID, strings.ToUpper(symbol)).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (s *GormStore) PutHolding(ctx context.Context, h *models.Holding) error {
	h.Symbol = strings.ToUpper(h.Symbol)
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "symbol"}},
		UpdateAll: true,
	}).Create(h).Error
}

func (s *GormStore) DeleteHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) error {
	return s.DB.WithContext(ctx).
		Where("portfolio_id = ? AND symbol = ?", portfolioID, strings.ToUpper(symbol)).
		Delete(&models.Holding{}).Error
}

func (s *GormStore) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.DB.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("symbol ASC").
		Find(&holdings).Error
	return holdings, err
}

func (s *GormStore) ListBySymbol(ctx context.Context, symbol string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.DB.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(symbol)).
		Find(&holdings).Error
	return holdings, err
}

func (s *GormStore) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.DB.WithContext(ctx).Create(tx).Error
}

func (s *GormStore) ListTransactions(ctx context.Context, portfolioID uuid.UUID, symbol string) ([]models.Transaction, error) {
	q := s.DB.WithContext(ctx).Where("portfolio_id = ?", portfolioID)
	if symbol != "" {
		q = q.Where("instrument_symbol = ?", strings.ToUpper(symbol))
	}
	var txs []models.Transaction
	err := q.Order("transaction_date DESC").Find(&txs).Error
	return txs, err
}

func (s *GormStore) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *GormStore) GetPortfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error) {
	var p models.Portfolio
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) PutPortfolio(ctx context.Context, p *models.Portfolio) error {
	return s.DB.WithContext(ctx).Save(p).Error
}

func (s *GormStore) ListPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	var ps []models.Portfolio
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&ps).Error
	return ps, err
}

func (s *GormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}
