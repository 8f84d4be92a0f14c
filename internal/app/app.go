package app

import (
	"tracker-backend/internal/config"
	"tracker-backend/internal/database"
	"tracker-backend/internal/health"
	"tracker-backend/internal/holdings"
	"tracker-backend/internal/ledger"
	"tracker-backend/internal/marketdata"
	"tracker-backend/internal/middleware"
	"tracker-backend/internal/portfolios"
	"tracker-backend/internal/stocks"
	"tracker-backend/internal/store"
	"tracker-backend/internal/transactions"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App bundles the Fiber app with the long-lived resources main must manage.
type App struct {
	Fiber *fiber.App
	DB    *gorm.DB
	Rdb   *redis.Client
	Feed  *marketdata.Feed
}

// CreateApp builds the Fiber app with all global middleware, the market data
// pipeline (feed → cache → ledger) and route registration. The feed is wired
// but not connected; main calls Feed.Start after creation.
func CreateApp(cfg *config.Config) (*App, error) {
	fiberApp := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	fiberApp.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opt)
		fiberApp.Use(middleware.HealthMarker(rdb))
	}

	fiberApp.Use(middleware.Tracing())
	fiberApp.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	// Market data pipeline: feed pushes trades into the cache; the cache
	// replays its subscriptions on every (re)connect.
	feed := marketdata.NewFeed(cfg.FinnhubWSURL, cfg.FinnhubAPIKey, log.Logger)
	quotes := marketdata.NewQuoteClient(cfg.FinnhubAPIURL, cfg.FinnhubAPIKey, log.Logger)
	cache := marketdata.NewCache(feed, quotes, log.Logger)
	feed.OnTrade(cache.HandleTrades)
	feed.OnConnect(func() {
		for _, symbol := range cache.SubscribedSymbols() {
			feed.Subscribe(symbol)
		}
	})

	// Health endpoints
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		Feed:           feed,
		ProviderURL:    cfg.FinnhubAPIURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	fiberApp.Get("/health/json", healthHandlers.JSON)
	fiberApp.Get("/health/errors", healthHandlers.Errors)
	fiberApp.Get("/reset", healthHandlers.Reset)

	// Realtime stock endpoints work without a database.
	stockHandlers := &stocks.Handlers{Cache: cache, Log: log.Logger}
	stockGroup := fiberApp.Group("/api/v1/stocks")
	stockGroup.Get("/quote/:symbol", stockHandlers.GetQuote)
	stockGroup.Get("/realtime/:symbol", stockHandlers.GetLatestPrice)
	stockGroup.Post("/realtime/:symbol/subscribe", stockHandlers.Subscribe)
	stockGroup.Post("/realtime/:symbol/unsubscribe", stockHandlers.Unsubscribe)
	stockGroup.Get("/realtime/:symbol/stream", stockHandlers.Stream)

	// Without a configured database the tracker still runs, backed by the
	// in-memory store (prices and holdings are lost on restart).
	var st store.Store
	if db != nil {
		st = store.NewGormStore(db)
	} else {
		st = store.NewMemStore()
	}

	led := ledger.New(st, cache, cfg.BaseCurrency, log.Logger)

	portfolioService := &portfolios.Service{Store: st, Ledger: led, BaseCurrency: cfg.BaseCurrency}
	portfolioHandlers := &portfolios.Handlers{Service: portfolioService}
	holdingService := &holdings.Service{Store: st, Ledger: led}
	holdingHandlers := &holdings.Handlers{Service: holdingService}
	txHandlers := &transactions.Handlers{Ledger: led}

	pg := fiberApp.Group("/api/v1/portfolios")
	pg.Post("/", portfolioHandlers.CreatePortfolio)
	pg.Get("/", portfolioHandlers.ListPortfolios)
	pg.Get("/:portfolio_id", portfolioHandlers.GetPortfolio)
	pg.Get("/:portfolio_id/summary", portfolioHandlers.GetSummary)

	pg.Post("/:portfolio_id/holdings", holdingHandlers.CreateHolding)
	pg.Get("/:portfolio_id/holdings", holdingHandlers.ListHoldings)
	pg.Get("/:portfolio_id/holdings/:symbol", holdingHandlers.GetHolding)

	pg.Post("/:portfolio_id/transactions", txHandlers.ExecuteTransaction)
	pg.Get("/:portfolio_id/transactions", txHandlers.ListTransactions)

	if db != nil {
		healthHandlers.DB = &gormPinger{db: db}
	}

	return &App{Fiber: fiberApp, DB: db, Rdb: rdb, Feed: feed}, nil
}

type gormPinger struct {
	db *gorm.DB
}

func (p *gormPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
