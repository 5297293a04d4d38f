package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daily_insight_bot/internal/infra/config"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// connectProbeTimeout bounds the startup connectivity probe.
const connectProbeTimeout = 5 * time.Second

// NewPostgresConnection opens the interest store's connection pool, sized
// from configuration, and probes connectivity before handing it out so a bad
// DATABASE_URL fails at startup instead of during the first delivery run.
func NewPostgresConnection(cfg *config.AppConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectProbeTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
