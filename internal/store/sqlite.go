package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JonMunkholm/carupload/internal/core"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores vehicles in a SQLite file. A single connection serializes
// writes, which SQLite requires anyway.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// EnsureSchema creates the vehicles table when absent.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		manufacturer TEXT NOT NULL,
		model TEXT NOT NULL,
		type TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create vehicles table: %w", err)
	}
	return nil
}

// SaveAll inserts vehicles in one transaction and returns them with IDs.
func (s *SQLite) SaveAll(ctx context.Context, vehicles []core.Vehicle) ([]core.Vehicle, error) {
	if len(vehicles) == 0 {
		return []core.Vehicle{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vehicles (manufacturer, model, type) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	saved := make([]core.Vehicle, len(vehicles))
	for i, v := range vehicles {
		res, err := stmt.ExecContext(ctx, v.Manufacturer, v.Model, v.Type)
		if err != nil {
			return nil, fmt.Errorf("insert vehicle %d (%s %s): %w", i+1, v.Manufacturer, v.Model, err)
		}
		if v.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("read vehicle id: %w", err)
		}
		saved[i] = v
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit vehicles: %w", err)
	}
	return saved, nil
}

// FindAll returns every vehicle ordered by ID.
func (s *SQLite) FindAll(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, manufacturer, model, type FROM vehicles ORDER BY id`)
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
	return vehicles, rows.Err()
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() {
	s.db.Close()
}
