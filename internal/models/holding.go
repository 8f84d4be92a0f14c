package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is keyed by (portfolio_id, symbol). A holding with zero quantity is
// deleted from the store, never persisted as a zero row.
type Holding struct {
	PortfolioID uuid.UUID       `gorm:"column:portfolio_id;type:uuid;primaryKey" json:"portfolio_id"`
	Symbol      string          `gorm:"column:symbol;size:10;primaryKey" json:"symbol"`
	Name        string          `gorm:"column:name" json:"name"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:decimal(19,8);not null" json:"quantity"`
	AvgPrice    decimal.Decimal `gorm:"column:avg_price_in_base_currency;type:decimal(19,2);not null" json:"avg_price_in_base_currency"`

	// Valuation fields, refreshed from market data. MarketPrice is nil until a
	// price has been seen; Value and UnrealizedProfit may be stale between refreshes.
	MarketPrice        *decimal.Decimal `gorm:"column:market_price;type:decimal(19,2)" json:"market_price"`
	InstrumentCurrency string           `gorm:"column:instrument_currency;size:3" json:"instrument_currency"`
	Value              decimal.Decimal  `gorm:"column:value_in_base_currency;type:decimal(19,2)" json:"value_in_base_currency"`
	UnrealizedProfit   decimal.Decimal  `gorm:"column:unrealized_profit_in_base_currency;type:decimal(19,2)" json:"unrealized_profit_in_base_currency"`
}

func (Holding) TableName() string {
	return "holdings"
}
