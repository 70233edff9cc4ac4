// Package database holds the optional PostgreSQL connection used to report
// whether the backend's database is reachable.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a small pgx pool used only for readiness probes.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a pool for databaseURL. Connections are opened
// lazily, so an unreachable database does not block startup; it shows up
// in readiness instead.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// ParseConfig parses databaseURL and applies probe pool settings.
func ParseConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnIdleTime = time.Minute
	config.ConnConfig.ConnectTimeout = 3 * time.Second
	config.ConnConfig.RuntimeParams["application_name"] = "foodgram-gateway"

	return config, nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
