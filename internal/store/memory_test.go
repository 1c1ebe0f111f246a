package store

import (
	"context"
	"testing"

	"github.com/JonMunkholm/carupload/internal/config"
	"github.com/JonMunkholm/carupload/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SaveAndFind(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	saved, err := m.SaveAll(ctx, []core.Vehicle{
		{Manufacturer: "Toyota", Model: "Corolla", Type: "Sedan"},
		{Manufacturer: "Honda", Model: "Civic", Type: "Hatchback"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved[0].ID)
	assert.Equal(t, int64(2), saved[1].ID)

	all, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, all)

	// FindAll returns a copy.
	all[0].Manufacturer = "changed"
	again, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Toyota", again[0].Manufacturer)
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.SaveAll(ctx, []core.Vehicle{{Manufacturer: "x", Model: "y", Type: "z"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	gw, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, gw)
	gw.Close()

	gw, err = Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, gw)
	gw.Close()

	_, err = Open(ctx, config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres})
	assert.ErrorContains(t, err, "DATABASE_URL")
}
