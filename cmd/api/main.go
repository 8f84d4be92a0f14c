package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tracker-backend/internal/app"
	"tracker-backend/internal/config"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}

	a, err := app.CreateApp(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}

	// Verify connections before printing startup logs.
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			panic("get DB: " + err.Error())
		}
		if err := sqlDB.Ping(); err != nil {
			panic("Postgres connection failed: " + err.Error())
		}
		fmt.Println("Postgres connected")
	}
	if a.Rdb != nil {
		if err := a.Rdb.Ping(context.Background()).Err(); err != nil {
			panic("Redis connection failed: " + err.Error())
		}
		fmt.Println("Redis connected")
	}

	// A failed initial feed connection is tolerated; the reconnect loop keeps
	// trying in the background while REST fallback serves quotes.
	if err := a.Feed.Start(); err != nil {
		log.Warn().Err(err).Msg("Market data feed not connected yet")
	}

	// Deterministic feed teardown on SIGINT/SIGTERM: no reconnect loop may
	// outlive the process shutdown.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		if err := a.Feed.Close(); err != nil {
			log.Error().Err(err).Msg("Feed close failed")
		}
		_ = a.Fiber.Shutdown()
	}()

	fmt.Printf("Server running at http://localhost:%s\n", cfg.Port)
	fmt.Printf("Health check: http://localhost:%s/health/json\n", cfg.Port)

	if err := a.Fiber.Listen(":" + cfg.Port); err != nil {
		panic(err)
	}
}
