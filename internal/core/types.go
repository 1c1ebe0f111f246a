package core

import "context"

// Vehicle is a single parsed or persisted CSV row.
// ID is zero until the store assigns one.
type Vehicle struct {
	ID           int64  `json:"id,omitempty"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Type         string `json:"type"`
}

// Persisted reports whether the store has assigned an identifier.
func (v Vehicle) Persisted() bool {
	return v.ID != 0
}

// VehicleStore is the persistence gateway used by the service.
// Implementations must be safe for concurrent use.
type VehicleStore interface {
	// SaveAll stores vehicles and returns them with identifiers assigned,
	// in the same order they were given.
	SaveAll(ctx context.Context, vehicles []Vehicle) ([]Vehicle, error)

	// FindAll returns every stored vehicle ordered by identifier.
	FindAll(ctx context.Context) ([]Vehicle, error)
}

// UploadMode labels which service entry point handled an upload.
type UploadMode string

const (
	ModeSync  UploadMode = "sync"
	ModeAsync UploadMode = "async"
)
