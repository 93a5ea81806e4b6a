package migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DBConfig struct {
	URL              string
	ConnMaxLifetime  time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
}

func NewDBConfig(url string) *DBConfig {
	return &DBConfig{
		URL:              url,
		ConnMaxLifetime:  10 * time.Minute,
		MaxOpenConns:     25,
		MaxIdleConns:     5,
		StatementTimeout: 30 * time.Second,
	}
}

// Connect opens and pings a pooled connection
func (cfg *DBConfig) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET statement_timeout = '%dms'", cfg.StatementTimeout.Milliseconds())
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set statement timeout: %w", err)
		}
	}

	return db, nil
}
