package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute
)

// Feed owns the single long-lived websocket connection to the market data
// provider. Frame sends are best-effort: a failed subscribe/unsubscribe is
// logged, not propagated — the cache's subscription state is the source of
// truth and is replayed through the OnConnect hook after every (re)connect.
type Feed struct {
	url    string
	apiKey string

	mu         sync.RWMutex
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	connected  bool

	reconnecting bool
	stopChan     chan struct{}
	stopped      bool

	onTrade   func([]Trade)
	onConnect func()

	log zerolog.Logger
}

// NewFeed creates a feed client for the given websocket endpoint. The API key
// is passed as the token query parameter.
func NewFeed(url, apiKey string, log zerolog.Logger) *Feed {
	return &Feed{
		url:      url,
		apiKey:   apiKey,
		stopChan: make(chan struct{}),
		log:      log.With().Str("component", "market_data_feed").Logger(),
	}
}

// OnTrade registers the handler for inbound trade frames. Must be set before
// Start.
func (f *Feed) OnTrade(fn func([]Trade)) {
	f.onTrade = fn
}

// OnConnect registers a hook invoked after every successful (re)connect,
// used to replay subscribe frames for all interested symbols.
func (f *Feed) OnConnect(fn func()) {
	f.onConnect = fn
}

// Start connects and launches the read loop. A failed initial connection is
// not fatal: the reconnect loop takes over in the background.
func (f *Feed) Start() error {
	if err := f.connect(); err != nil {
		f.log.Warn().Err(err).Msg("Initial feed connection failed, will retry in background")
		go f.reconnectLoop()
		return err
	}

	f.mu.RLock()
	ctx := f.connCtx
	f.mu.RUnlock()
	go f.readMessages(ctx)

	f.log.Info().Msg("Market data feed started")
	return nil
}

// Close shuts the connection down deterministically; no reconnect loop
// survives it.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return nil
	}
	f.stopped = true
	f.mu.Unlock()

	close(f.stopChan)
	return f.disconnect()
}

// IsConnected reports the current connection status.
func (f *Feed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// Subscribe sends a subscribe frame for the symbol. Best-effort.
func (f *Feed) Subscribe(symbol string) {
	f.send(controlFrame{Type: "subscribe", Symbol: strings.ToUpper(symbol)})
}

// Unsubscribe sends an unsubscribe frame for the symbol. Best-effort.
func (f *Feed) Unsubscribe(symbol string) {
	f.send(controlFrame{Type: "unsubscribe", Symbol: strings.ToUpper(symbol)})
}

func (f *Feed) send(frame controlFrame) {
	f.mu.RLock()
	conn := f.conn
	ctx := f.connCtx
	f.mu.RUnlock()

	if conn == nil {
		f.log.Debug().Str("type", frame.Type).Str("symbol", frame.Symbol).Msg("Feed not connected, frame dropped (replayed on reconnect)")
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		f.log.Error().Err(err).Msg("Failed to marshal control frame")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		f.log.Warn().Err(err).Str("type", frame.Type).Str("symbol", frame.Symbol).Msg("Failed to send control frame")
	}
}

func (f *Feed) connect() error {
	f.mu.Lock()

	wsURL := f.url
	if f.apiKey != "" {
		wsURL += "?token=" + f.apiKey
	}

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, nil)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("dial feed: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	f.conn = conn
	f.connCtx = connCtx
	f.cancelFunc = connCancel
	f.connected = true
	f.mu.Unlock()

	f.log.Info().Str("url", f.url).Msg("Connected to market data feed")

	if f.onConnect != nil {
		f.onConnect()
	}
	return nil
}

func (f *Feed) disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil {
		return nil
	}

	if f.cancelFunc != nil {
		f.cancelFunc()
		f.cancelFunc = nil
	}

	err := f.conn.Close(websocket.StatusNormalClosure, "")
	f.conn = nil
	f.connCtx = nil
	f.connected = false

	if err != nil {
		return fmt.Errorf("close feed connection: %w", err)
	}
	return nil
}

func (f *Feed) readMessages(ctx context.Context) {
	defer func() {
		f.mu.Lock()
		f.connected = false
		stopped := f.stopped
		f.mu.Unlock()
		if !stopped {
			go f.reconnectLoop()
		}
	}()

	for {
		select {
		case <-f.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()
		if conn == nil {
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				f.log.Info().Int("status", int(closeStatus)).Msg("Feed closed normally")
			} else if ctx.Err() != nil {
				f.log.Debug().Msg("Feed read cancelled")
			} else {
				f.log.Error().Err(err).Msg("Unexpected feed read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		if err := f.handleMessage(message); err != nil {
			// Keep reading despite malformed frames.
			f.log.Error().Err(err).Str("message", string(message)).Msg("Failed to handle feed message")
		}
	}
}

func (f *Feed) handleMessage(message []byte) error {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("parse feed message: %w", err)
	}

	switch msg.Type {
	case "trade":
		if f.onTrade != nil && len(msg.Data) > 0 {
			f.onTrade(msg.Data)
		}
	case "ping":
		f.log.Debug().Msg("Feed keep-alive")
	default:
		f.log.Debug().Str("type", msg.Type).Msg("Ignoring unknown feed frame")
	}
	return nil
}

// reconnectLoop is the single supervised reconnect task. At most one loop runs
// per connection lifecycle; it exits on Close.
func (f *Feed) reconnectLoop() {
	f.mu.Lock()
	if f.reconnecting || f.stopped {
		f.mu.Unlock()
		return
	}
	f.reconnecting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.reconnecting = false
		f.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-f.stopChan:
			return
		default:
		}

		attempt++
		delay := f.backoff(attempt)
		f.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("Scheduling feed reconnect")

		select {
		case <-time.After(delay):
		case <-f.stopChan:
			return
		}

		if err := f.connect(); err != nil {
			f.log.Error().Err(err).Int("attempt", attempt).Msg("Feed reconnect failed")
			continue
		}

		f.log.Info().Int("attempt", attempt).Msg("Feed reconnected")

		f.mu.RLock()
		ctx := f.connCtx
		f.mu.RUnlock()
		go f.readMessages(ctx)
		return
	}
}

func (f *Feed) backoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}
