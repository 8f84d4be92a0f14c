package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio accumulates realized profit from SELL transactions against its holdings.
type Portfolio struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	BaseCurrency   string          `gorm:"column:base_currency;size:3;not null" json:"base_currency"`
	RealizedProfit decimal.Decimal `gorm:"column:realized_profit_in_base_currency;type:decimal(19,2)" json:"realized_profit_in_base_currency"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}
