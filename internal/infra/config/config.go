package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string

	// TriggerSecret authorizes calls to the delivery trigger endpoint.
	// AllowUnauthenticatedTrigger must be set explicitly to run without one;
	// an empty secret is otherwise a startup error, never an implicit
	// open-door default.
	TriggerSecret               string
	AllowUnauthenticatedTrigger bool

	HTTPListenAddr      string
	CronSpecDaily       string // full-population delivery run
	DeliveryConcurrency int
	DeliveryRunTimeout  time.Duration
	InterestHalfLife    time.Duration

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TriggerSecret = os.Getenv("TRIGGER_SECRET")
	cfg.AllowUnauthenticatedTrigger = parseBool(os.Getenv("ALLOW_UNAUTHENTICATED_TRIGGER"))
	if cfg.TriggerSecret == "" && !cfg.AllowUnauthenticatedTrigger {
		return nil, fmt.Errorf("TRIGGER_SECRET is not set; set it or explicitly set ALLOW_UNAUTHENTICATED_TRIGGER=true")
	}

	cfg.HTTPListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = ":8080"
	}

	cfg.CronSpecDaily = os.Getenv("CRON_SPEC_DAILY_DELIVERY")
	if cfg.CronSpecDaily == "" {
		cfg.CronSpecDaily = "0 9 * * *" // Default: 9:00 AM daily
	}

	if concurrencyStr := os.Getenv("DELIVERY_CONCURRENCY"); concurrencyStr != "" {
		concurrency, err := strconv.Atoi(concurrencyStr)
		if err != nil || concurrency <= 0 {
			return nil, fmt.Errorf("invalid DELIVERY_CONCURRENCY: %q", concurrencyStr)
		}
		cfg.DeliveryConcurrency = concurrency
	} else {
		cfg.DeliveryConcurrency = 4
	}

	cfg.DeliveryRunTimeout = 10 * time.Minute
	if timeoutStr := os.Getenv("DELIVERY_RUN_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid DELIVERY_RUN_TIMEOUT: %q", timeoutStr)
		}
		cfg.DeliveryRunTimeout = timeout
	}

	cfg.InterestHalfLife = 14 * 24 * time.Hour
	if halfLifeStr := os.Getenv("INTEREST_HALF_LIFE"); halfLifeStr != "" {
		halfLife, err := time.ParseDuration(halfLifeStr)
		if err != nil || halfLife <= 0 {
			return nil, fmt.Errorf("invalid INTEREST_HALF_LIFE: %q", halfLifeStr)
		}
		cfg.InterestHalfLife = halfLife
	}

	cfg.DBMaxOpenConns = 25
	if s := os.Getenv("DB_MAX_OPEN_CONNS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %q", s)
		}
		cfg.DBMaxOpenConns = n
	}

	cfg.DBMaxIdleConns = cfg.DBMaxOpenConns
	if s := os.Getenv("DB_MAX_IDLE_CONNS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %q", s)
		}
		cfg.DBMaxIdleConns = n
	}

	cfg.DBConnMaxLifetime = 5 * time.Minute
	if s := os.Getenv("DB_CONN_MAX_LIFETIME"); s != "" {
		lifetime, err := time.ParseDuration(s)
		if err != nil || lifetime <= 0 {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %q", s)
		}
		cfg.DBConnMaxLifetime = lifetime
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}
