package stocks

import (
	"bufio"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tracker-backend/internal/marketdata"
	"tracker-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const streamBuffer = 16

// Handlers exposes the realtime price cache: cached reads, manual
// subscription management, the quote fallback and a per-symbol SSE stream for
// upstream fan-out.
type Handlers struct {
	Cache *marketdata.Cache
	Log   zerolog.Logger
}

// GetLatestPrice GET /api/v1/stocks/realtime/:symbol
func (h *Handlers) GetLatestPrice(c *fiber.Ctx) error {
	price, ok := h.Cache.LatestPrice(c.Params("symbol"))
	if !ok {
		return response.Error(c, "No realtime price available for symbol", 404, nil)
	}
	return response.Success(c, "Latest price fetched successfully", price, nil)
}

// GetQuote GET /api/v1/stocks/quote/:symbol — cached price or fallback fetch.
func (h *Handlers) GetQuote(c *fiber.Ctx) error {
	price, err := h.Cache.GetOrFetch(c.Context(), c.Params("symbol"))
	if err != nil {
		if errors.Is(err, marketdata.ErrPriceUnavailable) {
			return response.Error(c, "Price unavailable for symbol", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Quote fetched successfully", price, nil)
}

// Subscribe POST /api/v1/stocks/realtime/:symbol/subscribe
func (h *Handlers) Subscribe(c *fiber.Ctx) error {
	symbol := strings.ToUpper(c.Params("symbol"))
	h.Cache.Subscribe(symbol)
	return response.Success(c, "Subscribed to symbol", fiber.Map{"symbol": symbol}, nil)
}

// Unsubscribe POST /api/v1/stocks/realtime/:symbol/unsubscribe
func (h *Handlers) Unsubscribe(c *fiber.Ctx) error {
	symbol := strings.ToUpper(c.Params("symbol"))
	h.Cache.Unsubscribe(symbol)
	return response.Success(c, "Unsubscribed from symbol", fiber.Map{"symbol": symbol}, nil)
}

// Stream GET /api/v1/stocks/realtime/:symbol/stream
//
// Server-sent events; one event per price update. The listener hands updates
// to a buffered channel and drops on overflow, so a slow client never stalls
// feed delivery. If a price is already cached it is sent immediately.
func (h *Handlers) Stream(c *fiber.Ctx) error {
	symbol := strings.ToUpper(c.Params("symbol"))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates := make(chan marketdata.StockPrice, streamBuffer)
	id := h.Cache.AddListener(symbol, func(p marketdata.StockPrice) {
		select {
		case updates <- p:
		default:
			// Client is not keeping up; drop rather than block the feed.
		}
	})

	if current, ok := h.Cache.LatestPrice(symbol); ok {
		select {
		case updates <- current:
		default:
		}
	}

	log := h.Log.With().Str("component", "stock_stream").Str("symbol", symbol).Logger()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.Cache.RemoveListener(symbol, id)

		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()

		for {
			select {
			case price := <-updates:
				payload, err := json.Marshal(price)
				if err != nil {
					log.Error().Err(err).Msg("Failed to marshal price update")
					continue
				}
				if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepAlive.C:
				// Comment frame; also detects a gone client between updates.
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}
