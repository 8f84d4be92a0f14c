package transactions

import (
	"errors"

	"tracker-backend/internal/ledger"
	"tracker-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers bundles transaction handlers over the ledger.
type Handlers struct {
	Ledger *ledger.Ledger
}

type executeRequest struct {
	Symbol       string          `json:"symbol"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Currency     string          `json:"txn_currency"`
}

// ExecuteTransaction POST /api/v1/portfolios/:portfolio_id/transactions
func (h *Handlers) ExecuteTransaction(c *fiber.Ctx) error {
	portfolioID, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	var req executeRequest
	if err := c.BodyParser(&req); err != nil || req.Symbol == "" || req.Type == "" {
		return response.Error(c, "Symbol and transaction type are required", 400, nil)
	}
	if !req.Quantity.IsPositive() {
		return response.Error(c, "Quantity must be positive", 400, nil)
	}
	if !req.PricePerUnit.IsPositive() {
		return response.Error(c, "Price per unit must be positive", 400, nil)
	}

	tx, err := h.Ledger.Execute(c.Context(), ledger.Request{
		PortfolioID:  portfolioID,
		Symbol:       req.Symbol,
		Type:         req.Type,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Currency:     req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidTransactionType):
			return response.Error(c, err.Error(), 400, nil)
		case errors.Is(err, ledger.ErrHoldingNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ledger.ErrInsufficientQuantity):
			return response.Error(c, err.Error(), 422, nil)
		default:
			return response.Error(c, "Internal Server Error", 500, nil)
		}
	}
	return response.SuccessCreated(c, "Transaction executed successfully", tx, nil)
}

// ListTransactions GET /api/v1/portfolios/:portfolio_id/transactions?symbol=
func (h *Handlers) ListTransactions(c *fiber.Ctx) error {
	portfolioID, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	data, err := h.Ledger.Transactions(c.Context(), portfolioID, c.Query("symbol"))
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Transactions fetched successfully", data, nil)
}
