package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/carupload/internal/config"
	"github.com/JonMunkholm/carupload/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of *pgxpool.Pool used by Postgres.
// Satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
	Ping(context.Context) error
}

const (
	createVehiclesTable = `
CREATE TABLE IF NOT EXISTS vehicles (
	id           BIGSERIAL PRIMARY KEY,
	manufacturer TEXT NOT NULL,
	model        TEXT NOT NULL,
	type         TEXT NOT NULL
)`

	insertVehicle = `INSERT INTO vehicles (manufacturer, model, type) VALUES ($1, $2, $3) RETURNING id`

	selectVehicles = `SELECT id, manufacturer, model, type FROM vehicles ORDER BY id`
)

// Connect opens a pgx pool with the configured limits and verifies it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL configuration is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Postgres stores vehicles in PostgreSQL.
type Postgres struct {
	db      DBTX
	closeFn func()
}

// NewPostgres creates a Postgres gateway over db.
func NewPostgres(db DBTX) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("postgres: db cannot be nil")
	}
	return &Postgres{db: db}, nil
}

// EnsureSchema creates the vehicles table when absent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createVehiclesTable); err != nil {
		return fmt.Errorf("create vehicles table: %w", err)
	}
	return nil
}

// SaveAll inserts vehicles in one transaction and returns them with the
// generated IDs, in input order. Either every row is stored or none is.
func (p *Postgres) SaveAll(ctx context.Context, vehicles []core.Vehicle) ([]core.Vehicle, error) {
	if len(vehicles) == 0 {
		return []core.Vehicle{}, nil
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	saved := make([]core.Vehicle, len(vehicles))
	for i, v := range vehicles {
		if err := tx.QueryRow(ctx, insertVehicle, v.Manufacturer, v.Model, v.Type).Scan(&v.ID); err != nil {
			tx.Rollback(ctx)
			return nil, fmt.Errorf("insert vehicle %d (%s %s): %w", i+1, v.Manufacturer, v.Model, err)
		}
		saved[i] = v
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit vehicles: %w", err)
	}
	return saved, nil
}

// FindAll returns every vehicle ordered by ID.
func (p *Postgres) FindAll(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := p.db.Query(ctx, selectVehicles)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []core.Vehicle{}
	for rows.Next() {
		var v core.Vehicle
		if err := rows.Scan(&v.ID, &v.Manufacturer, &v.Model, &v.Type); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return vehicles, nil
}

// Ping verifies the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Close closes the pool opened by Open. No-op for injected connections.
func (p *Postgres) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}
