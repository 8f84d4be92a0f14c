package stocks

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"tracker-backend/internal/marketdata"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{}

func (nopSender) Subscribe(string)   {}
func (nopSender) Unsubscribe(string) {}

type fixedQuotes struct {
	quote *marketdata.Quote
}

func (f *fixedQuotes) Quote(context.Context, string) (*marketdata.Quote, error) {
	if f.quote == nil {
		return nil, marketdata.ErrPriceUnavailable
	}
	return f.quote, nil
}

func setupStocksTest(quote *marketdata.Quote) (*fiber.App, *marketdata.Cache) {
	cache := marketdata.NewCache(nopSender{}, &fixedQuotes{quote: quote}, zerolog.Nop())
	h := &Handlers{Cache: cache, Log: zerolog.Nop()}

	app := fiber.New()
	g := app.Group("/api/v1/stocks")
	g.Get("/quote/:symbol", h.GetQuote)
	g.Get("/realtime/:symbol", h.GetLatestPrice)
	g.Post("/realtime/:symbol/subscribe", h.Subscribe)
	g.Post("/realtime/:symbol/unsubscribe", h.Unsubscribe)
	return app, cache
}

func get(t *testing.T, app *fiber.App, method, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestGetLatestPrice_NoCachedPrice(t *testing.T) {
	app, _ := setupStocksTest(nil)
	status, _ := get(t, app, "GET", "/api/v1/stocks/realtime/AAPL")
	assert.Equal(t, 404, status)
}

func TestGetLatestPrice_Cached(t *testing.T) {
	app, cache := setupStocksTest(nil)
	cache.Subscribe("AAPL")
	cache.HandleTrades([]marketdata.Trade{{
		Symbol:    "AAPL",
		Price:     decimal.RequireFromString("150.25"),
		Timestamp: 1700000000000,
		Volume:    10,
	}})

	status, body := get(t, app, "GET", "/api/v1/stocks/realtime/aapl")
	require.Equal(t, 200, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "AAPL", data["symbol"])
	price, err := decimal.NewFromString(data["price"].(string))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("150.25")))
}

func TestGetQuote_FallbackFetch(t *testing.T) {
	app, _ := setupStocksTest(&marketdata.Quote{
		Current:   decimal.RequireFromString("172.50"),
		Timestamp: 1700000000,
	})

	status, body := get(t, app, "GET", "/api/v1/stocks/quote/AAPL")
	require.Equal(t, 200, status)

	data := body["data"].(map[string]interface{})
	price, err := decimal.NewFromString(data["price"].(string))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("172.50")))
}

func TestGetQuote_Unavailable(t *testing.T) {
	app, _ := setupStocksTest(nil)
	status, _ := get(t, app, "GET", "/api/v1/stocks/quote/UNKNOWN")
	assert.Equal(t, 404, status)
}

func TestSubscribeUnsubscribeEndpoints(t *testing.T) {
	app, cache := setupStocksTest(nil)

	status, body := get(t, app, "POST", "/api/v1/stocks/realtime/aapl/subscribe")
	require.Equal(t, 200, status)
	assert.Equal(t, "AAPL", body["data"].(map[string]interface{})["symbol"])
	assert.Equal(t, []string{"AAPL"}, cache.SubscribedSymbols())

	status, _ = get(t, app, "POST", "/api/v1/stocks/realtime/aapl/unsubscribe")
	require.Equal(t, 200, status)
	assert.Empty(t, cache.SubscribedSymbols())
}
