package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":172.5,"d":1.2,"dp":0.7,"h":173.1,"l":170.2,"o":171.0,"pc":171.3,"t":1700000000}`))
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL, "test-key", zerolog.Nop())
	quote, err := q.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.True(t, quote.Current.Equal(decimal.RequireFromString("172.5")))
	assert.True(t, quote.PreviousClose.Equal(decimal.RequireFromString("171.3")))
	assert.Equal(t, int64(1700000000), quote.Timestamp)
}

func TestQuote_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL, "test-key", zerolog.Nop())
	_, err := q.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestQuote_UnknownSymbolAllZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL, "test-key", zerolog.Nop())
	_, err := q.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestQuote_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>rate limited</html>`))
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL, "test-key", zerolog.Nop())
	_, err := q.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestQuote_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	q := NewQuoteClient(srv.URL, "test-key", zerolog.Nop())
	_, err := q.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}
