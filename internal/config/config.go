package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	FinnhubAPIKey       string
	FinnhubAPIURL       string // REST base, e.g. https://finnhub.io/api/v1
	FinnhubWSURL        string // websocket endpoint, e.g. wss://ws.finnhub.io
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	BaseCurrency        string // default currency label for portfolios and transactions
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FinnhubAPIKey:       viper.GetString("FINNHUB_API_KEY"),
		FinnhubAPIURL:       withDefault(viper.GetString("FINNHUB_API_URL"), "https://finnhub.io/api/v1"),
		FinnhubWSURL:        withDefault(viper.GetString("FINNHUB_WS_URL"), "wss://ws.finnhub.io"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		BaseCurrency:        withDefault(viper.GetString("BASE_CURRENCY"), "USD"),
	}, nil
}

func withDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
