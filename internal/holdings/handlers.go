package holdings

import (
	"errors"

	"tracker-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers bundles holdings handlers.
type Handlers struct {
	Service *Service
}

type createHoldingRequest struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price_in_base_currency"`
}

// CreateHolding POST /api/v1/portfolios/:portfolio_id/holdings
func (h *Handlers) CreateHolding(c *fiber.Ctx) error {
	portfolioID, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	var req createHoldingRequest
	if err := c.BodyParser(&req); err != nil || req.Symbol == "" {
		return response.Error(c, "Symbol is required", 400, nil)
	}
	if !req.Quantity.IsPositive() {
		return response.Error(c, "Quantity must be positive", 400, nil)
	}
	if !req.AvgPrice.IsPositive() {
		return response.Error(c, "Average price must be positive", 400, nil)
	}

	data, err := h.Service.Create(c.Context(), CreateRequest{
		PortfolioID: portfolioID,
		Symbol:      req.Symbol,
		Name:        req.Name,
		Quantity:    req.Quantity,
		AvgPrice:    req.AvgPrice,
	})
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Holding created successfully", data, nil)
}

// GetHolding GET /api/v1/portfolios/:portfolio_id/holdings/:symbol
func (h *Handlers) GetHolding(c *fiber.Ctx) error {
	portfolioID, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	data, err := h.Service.Get(c.Context(), portfolioID, c.Params("symbol"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Error(c, "Holding not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Holding fetched successfully", data, nil)
}

// ListHoldings GET /api/v1/portfolios/:portfolio_id/holdings
func (h *Handlers) ListHoldings(c *fiber.Ctx) error {
	portfolioID, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	data, err := h.Service.List(c.Context(), portfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Holdings fetched successfully", data, nil)
}
