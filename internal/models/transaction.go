package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types (closed set; input is normalized to upper-case).
const (
	TxTypeBuy  = "BUY"
	TxTypeSell = "SELL"
)

// Transaction is an append-only ledger row, never mutated after execution.
// RealizedProfit is set for SELL transactions only and may be negative.
type Transaction struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PortfolioID    uuid.UUID        `gorm:"column:portfolio_id;type:uuid;not null;index" json:"portfolio_id"`
	Symbol         string           `gorm:"column:instrument_symbol;size:10;not null;index" json:"instrument_symbol"`
	Type           string           `gorm:"column:type;size:10;not null" json:"type"`
	Quantity       decimal.Decimal  `gorm:"column:quantity;type:decimal(19,8);not null" json:"quantity"`
	PricePerUnit   decimal.Decimal  `gorm:"column:price_per_unit;type:decimal(19,2);not null" json:"price_per_unit"`
	Currency       string           `gorm:"column:txn_currency;size:3" json:"txn_currency"`
	ExecutedAt     time.Time        `gorm:"column:transaction_date;not null" json:"transaction_date"`
	RealizedProfit *decimal.Decimal `gorm:"column:realized_profit;type:decimal(19,2)" json:"realized_profit,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
