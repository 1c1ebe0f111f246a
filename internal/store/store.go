// Package store provides the vehicle persistence gateways.
//
// Three backends implement core.VehicleStore: PostgreSQL through pgx, SQLite
// through database/sql, and an in-memory store for tests and local runs.
// Each assigns identifiers on save and serializes its own writes, so the
// service adds no locking of its own.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/carupload/internal/config"
	"github.com/JonMunkholm/carupload/internal/core"
)

// Gateway is a core.VehicleStore with lifecycle hooks used by main.
type Gateway interface {
	core.VehicleStore

	// EnsureSchema creates the vehicles table when absent.
	EnsureSchema(ctx context.Context) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases connections. Safe to call once.
	Close()
}

// Open returns the gateway selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Gateway, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p, err := NewPostgres(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		p.closeFn = pool.Close
		return p, nil

	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)

	case config.DriverMemory:
		return NewMemory(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
