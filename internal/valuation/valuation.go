// Package valuation is pure computation over holdings and prices. Nothing in
// here mutates state; missing values are treated as zero, never as a fault.
package valuation

import (
	"tracker-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is the valuation of a single holding at a given price.
type Result struct {
	Value            decimal.Decimal `json:"value_in_base_currency"`
	UnrealizedProfit decimal.Decimal `json:"unrealized_profit_in_base_currency"`
}

// Summary aggregates a portfolio's holdings.
type Summary struct {
	PortfolioID      uuid.UUID       `json:"portfolio_id"`
	BaseCurrency     string          `json:"base_currency"`
	TotalCost        decimal.Decimal `json:"total_cost_in_base"`
	TotalValue       decimal.Decimal `json:"total_value_in_base"`
	UnrealizedProfit decimal.Decimal `json:"unrealized_profit_in_base"`
	RealizedProfit   decimal.Decimal `json:"realized_profit_in_base"`
	TotalProfit      decimal.Decimal `json:"total_profit_in_base"`
}

// Valuate computes value and unrealized profit for a holding at a price.
// A nil price values the position at zero.
func Valuate(h *models.Holding, price *decimal.Decimal) Result {
	if price == nil {
		return Result{
			Value:            decimal.Zero,
			UnrealizedProfit: decimal.Zero.Sub(h.AvgPrice.Mul(h.Quantity)),
		}
	}
	value := price.Mul(h.Quantity)
	costBasis := h.AvgPrice.Mul(h.Quantity)
	return Result{
		Value:            value,
		UnrealizedProfit: value.Sub(costBasis),
	}
}

// Summarize reduces a portfolio's holdings to totals. Holdings with no market
// price contribute zero value; total profit is unrealized plus the portfolio's
// cumulative realized profit.
func Summarize(p *models.Portfolio, holdings []models.Holding) Summary {
	totalCost := decimal.Zero
	totalValue := decimal.Zero

	for i := range holdings {
		h := &holdings[i]
		totalCost = totalCost.Add(h.AvgPrice.Mul(h.Quantity))
		totalValue = totalValue.Add(h.Value)
	}

	unrealized := totalValue.Sub(totalCost)
	realized := p.RealizedProfit
	return Summary{
		PortfolioID:      p.ID,
		BaseCurrency:     p.BaseCurrency,
		TotalCost:        totalCost,
		TotalValue:       totalValue,
		UnrealizedProfit: unrealized,
		RealizedProfit:   realized,
		TotalProfit:      unrealized.Add(realized),
	}
}
