package portfolios

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"tracker-backend/internal/ledger"
	"tracker-backend/internal/marketdata"
	"tracker-backend/internal/models"
	"tracker-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices struct {
	prices map[string]decimal.Decimal
}

func (s *stubPrices) GetOrFetch(_ context.Context, symbol string) (marketdata.StockPrice, error) {
	p, ok := s.prices[symbol]
	if !ok {
		return marketdata.StockPrice{}, marketdata.ErrPriceUnavailable
	}
	return marketdata.StockPrice{Symbol: symbol, Price: p, Timestamp: time.Now().UnixMilli()}, nil
}

func setupPortfolioTest(t *testing.T, prices map[string]decimal.Decimal) (*fiber.App, *Service, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	led := ledger.New(st, &stubPrices{prices: prices}, "USD", zerolog.Nop())
	svc := &Service{Store: st, Ledger: led, BaseCurrency: "USD"}
	h := &Handlers{Service: svc}

	app := fiber.New()
	app.Post("/api/v1/portfolios", h.CreatePortfolio)
	app.Get("/api/v1/portfolios", h.ListPortfolios)
	app.Get("/api/v1/portfolios/:portfolio_id", h.GetPortfolio)
	app.Get("/api/v1/portfolios/:portfolio_id/summary", h.GetSummary)
	return app, svc, st
}

func request(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestCreatePortfolio(t *testing.T) {
	app, _, _ := setupPortfolioTest(t, nil)

	status, body := request(t, app, "POST", "/api/v1/portfolios", `{"name":"Retirement"}`)
	require.Equal(t, 201, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Retirement", data["name"])
	assert.Equal(t, "USD", data["base_currency"], "base currency defaults")
	_, err := uuid.Parse(data["id"].(string))
	assert.NoError(t, err)
}

func TestCreatePortfolio_ExplicitCurrencyAndValidation(t *testing.T) {
	app, _, _ := setupPortfolioTest(t, nil)

	status, body := request(t, app, "POST", "/api/v1/portfolios", `{"name":"Euro fund","base_currency":"EUR"}`)
	require.Equal(t, 201, status)
	assert.Equal(t, "EUR", body["data"].(map[string]interface{})["base_currency"])

	status, _ = request(t, app, "POST", "/api/v1/portfolios", `{}`)
	assert.Equal(t, 400, status)
}

func TestGetPortfolio(t *testing.T) {
	app, svc, _ := setupPortfolioTest(t, nil)
	p, err := svc.Create(context.Background(), "Main", "")
	require.NoError(t, err)

	status, body := request(t, app, "GET", "/api/v1/portfolios/"+p.ID.String(), "")
	require.Equal(t, 200, status)
	assert.Equal(t, "Main", body["data"].(map[string]interface{})["name"])

	status, _ = request(t, app, "GET", "/api/v1/portfolios/"+uuid.New().String(), "")
	assert.Equal(t, 404, status)

	status, _ = request(t, app, "GET", "/api/v1/portfolios/not-a-uuid", "")
	assert.Equal(t, 400, status)
}

func TestListPortfolios(t *testing.T) {
	app, svc, _ := setupPortfolioTest(t, nil)
	_, err := svc.Create(context.Background(), "One", "")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "Two", "")
	require.NoError(t, err)

	status, body := request(t, app, "GET", "/api/v1/portfolios", "")
	require.Equal(t, 200, status)
	assert.Len(t, body["data"].([]interface{}), 2)
}

func TestGetSummary_AggregatesHoldings(t *testing.T) {
	app, svc, st := setupPortfolioTest(t, map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("200.00"),
	})
	p, err := svc.Create(context.Background(), "Main", "")
	require.NoError(t, err)

	// One priced and one unpriced position.
	require.NoError(t, st.PutHolding(context.Background(), &models.Holding{
		PortfolioID: p.ID,
		Symbol:      "AAPL",
		Quantity:    decimal.RequireFromString("10"),
		AvgPrice:    decimal.RequireFromString("150.00"),
	}))
	require.NoError(t, st.PutHolding(context.Background(), &models.Holding{
		PortfolioID: p.ID,
		Symbol:      "NEWCO",
		Quantity:    decimal.RequireFromString("5"),
		AvgPrice:    decimal.RequireFromString("20.00"),
	}))

	status, body := request(t, app, "GET", "/api/v1/portfolios/"+p.ID.String()+"/summary", "")
	require.Equal(t, 200, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, p.ID.String(), data["portfolio_id"])
	assert.Equal(t, "USD", data["base_currency"])

	dget := func(key string) decimal.Decimal {
		v, err := decimal.NewFromString(data[key].(string))
		require.NoError(t, err)
		return v
	}
	assert.True(t, dget("total_cost_in_base").Equal(decimal.RequireFromString("1600")))
	assert.True(t, dget("total_value_in_base").Equal(decimal.RequireFromString("2000")), "unpriced position contributes zero value")
	assert.True(t, dget("unrealized_profit_in_base").Equal(decimal.RequireFromString("400")))
	assert.True(t, dget("realized_profit_in_base").IsZero())
	assert.True(t, dget("total_profit_in_base").Equal(decimal.RequireFromString("400")))
}

func TestGetSummary_IncludesRealizedProfit(t *testing.T) {
	app, svc, _ := setupPortfolioTest(t, nil)
	p, err := svc.Create(context.Background(), "Main", "")
	require.NoError(t, err)

	_, err = svc.Ledger.Execute(context.Background(), ledger.Request{
		PortfolioID:  p.ID,
		Symbol:       "AAPL",
		Type:         models.TxTypeBuy,
		Quantity:     decimal.RequireFromString("10"),
		PricePerUnit: decimal.RequireFromString("150.00"),
	})
	require.NoError(t, err)
	_, err = svc.Ledger.Execute(context.Background(), ledger.Request{
		PortfolioID:  p.ID,
		Symbol:       "AAPL",
		Type:         models.TxTypeSell,
		Quantity:     decimal.RequireFromString("10"),
		PricePerUnit: decimal.RequireFromString("166.00"),
	})
	require.NoError(t, err)

	status, body := request(t, app, "GET", "/api/v1/portfolios/"+p.ID.String()+"/summary", "")
	require.Equal(t, 200, status)

	data := body["data"].(map[string]interface{})
	realized, err := decimal.NewFromString(data["realized_profit_in_base"].(string))
	require.NoError(t, err)
	assert.True(t, realized.Equal(decimal.RequireFromString("160")), "got realized %s", realized)
	total, err := decimal.NewFromString(data["total_profit_in_base"].(string))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("160")))
}

func TestGetSummary_NotFound(t *testing.T) {
	app, _, _ := setupPortfolioTest(t, nil)
	status, _ := request(t, app, "GET", "/api/v1/portfolios/"+uuid.New().String()+"/summary", "")
	assert.Equal(t, 404, status)
}
