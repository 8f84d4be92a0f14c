package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"tracker-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		Port:          "8080",
		FinnhubAPIURL: "http://127.0.0.1:0",
		FinnhubWSURL:  "ws://127.0.0.1:0",
		BaseCurrency:  "USD",
	}
}

// With no database and no redis configured the app still wires every route
// against the in-memory store.
func TestCreateApp_EndToEndWithoutDatabase(t *testing.T) {
	a, err := CreateApp(testConfig())
	require.NoError(t, err)
	require.Nil(t, a.DB)
	require.Nil(t, a.Rdb)

	do := func(method, path, body string) (int, map[string]interface{}) {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := a.Fiber.Test(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var parsed map[string]interface{}
		_ = json.Unmarshal(raw, &parsed)
		return resp.StatusCode, parsed
	}

	status, body := do("POST", "/api/v1/portfolios", `{"name":"Main"}`)
	require.Equal(t, 201, status)
	pid := body["data"].(map[string]interface{})["id"].(string)

	status, _ = do("POST", "/api/v1/portfolios/"+pid+"/transactions",
		`{"symbol":"AAPL","type":"BUY","quantity":"10","price_per_unit":"150.00"}`)
	require.Equal(t, 201, status)

	status, body = do("GET", "/api/v1/portfolios/"+pid+"/holdings", "")
	require.Equal(t, 200, status)
	holdings := body["data"].([]interface{})
	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].(map[string]interface{})["symbol"])

	status, _ = do("GET", "/api/v1/portfolios/"+pid+"/transactions", "")
	assert.Equal(t, 200, status)

	// Realtime endpoints are wired even though the feed never connected.
	status, _ = do("GET", "/api/v1/stocks/realtime/AAPL", "")
	assert.Equal(t, 404, status)

	status, _ = do("POST", "/api/v1/stocks/realtime/AAPL/subscribe", "")
	assert.Equal(t, 200, status)
}

func TestCreateApp_TraceHeaderOnResponses(t *testing.T) {
	a, err := CreateApp(testConfig())
	require.NoError(t, err)

	resp, err := a.Fiber.Test(httptest.NewRequest("GET", "/api/v1/portfolios", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))
}
