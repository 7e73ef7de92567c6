// Package postgres provides a PostgreSQL statblock document backend on pgx v5.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pf2e-toolbox/internal/config"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
)

// Connect opens a pgx pool sized by cfg and pings it.
//
// Postcondition: Returns a connected pool or a non-nil error; on error no
// pool is left open.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// Open brings the schema at cfg up to date, connects, and returns a statblock
// store over the pool.
//
// Postcondition: on success the caller must Close the returned pool.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*document.Store, *pgxpool.Pool, error) {
	if err := MigrateUp(cfg.DSN()); err != nil {
		return nil, nil, err
	}
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewStore(pool), pool, nil
}
