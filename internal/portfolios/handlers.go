package portfolios

import (
	"errors"

	"tracker-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles portfolio handlers.
type Handlers struct {
	Service *Service
}

type createPortfolioRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

// CreatePortfolio POST /api/v1/portfolios
func (h *Handlers) CreatePortfolio(c *fiber.Ctx) error {
	var req createPortfolioRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return response.Error(c, "Portfolio name is required", 400, nil)
	}

	data, err := h.Service.Create(c.Context(), req.Name, req.BaseCurrency)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Portfolio created successfully", data, nil)
}

// ListPortfolios GET /api/v1/portfolios
func (h *Handlers) ListPortfolios(c *fiber.Ctx) error {
	data, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Portfolios fetched successfully", data, nil)
}

// GetPortfolio GET /api/v1/portfolios/:portfolio_id
func (h *Handlers) GetPortfolio(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	data, err := h.Service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Error(c, "Portfolio not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Portfolio fetched successfully", data, nil)
}

// GetSummary GET /api/v1/portfolios/:portfolio_id/summary
func (h *Handlers) GetSummary(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("portfolio_id"))
	if err != nil {
		return response.Error(c, "Invalid portfolio ID format (must be a valid UUID)", 400, nil)
	}

	data, err := h.Service.Summary(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Error(c, "Portfolio not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Portfolio summary fetched successfully", data, nil)
}
