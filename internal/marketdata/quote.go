package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const quoteTimeout = 10 * time.Second

// QuoteClient fetches quotes from the provider's REST endpoint. It is the
// fallback data source when the realtime cache has no entry; a bounded client
// timeout keeps a slow provider from stalling callers.
type QuoteClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewQuoteClient(baseURL, apiKey string, log zerolog.Logger) *QuoteClient {
	return &QuoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: quoteTimeout},
		log:     log.With().Str("component", "quote_client").Logger(),
	}
}

// Quote fetches the current quote for a symbol. A missing or zero current
// price is reported as ErrPriceUnavailable, never as a zero quote.
func (q *QuoteClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("token", q.apiKey)
	endpoint := q.baseURL + "/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		q.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
		return nil, ErrPriceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		q.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("Quote endpoint returned non-200")
		return nil, ErrPriceUnavailable
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		q.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to decode quote response")
		return nil, ErrPriceUnavailable
	}

	// The provider answers unknown symbols with an all-zero quote.
	if quote.Current.IsZero() {
		return nil, ErrPriceUnavailable
	}

	return &quote, nil
}
