package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/carupload/internal/core"
)

// Memory keeps vehicles in process memory. Contents are lost on restart.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	vehicles []core.Vehicle
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) EnsureSchema(context.Context) error { return nil }

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}

// SaveAll assigns sequential IDs starting at 1.
func (m *Memory) SaveAll(ctx context.Context, vehicles []core.Vehicle) ([]core.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	saved := make([]core.Vehicle, len(vehicles))
	for i, v := range vehicles {
		m.nextID++
		v.ID = m.nextID
		saved[i] = v
	}
	m.vehicles = append(m.vehicles, saved...)
	return saved, nil
}

// FindAll returns a copy of every stored vehicle ordered by ID.
func (m *Memory) FindAll(ctx context.Context) ([]core.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Vehicle, len(m.vehicles))
	copy(out, m.vehicles)
	return out, nil
}
