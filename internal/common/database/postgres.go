package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"insurance-quote-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL connection pool holding the plan catalog,
// plan selections and contact data.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a connection pool. It does not dial; call Ping for that.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	lifetime := time.Duration(cfg.ConnMaxLifetime) * time.Second
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime)

	return &PostgresClient{DB: db}, nil
}

// Ping checks the pool can reach the server. It backs both the startup retry
// loop and the /ready probe.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
