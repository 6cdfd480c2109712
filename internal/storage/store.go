// Package storage provides abstractions for persisting cap-table snapshots.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/fairshare/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// SnapshotKey is the key the serialized state is stored under.
const SnapshotKey = "data"

// Snapshot is the full serialized state of the entity store.
type Snapshot struct {
	Shareholders map[int]models.Shareholder `json:"shareholders"`
	Users        map[string]models.User     `json:"users"`
	Grants       map[int]models.Grant       `json:"grants"`
	Company      *models.Company            `json:"company,omitempty"`
}

// Sink defines the interface for snapshot persistence.
// This abstraction allows swapping backends (SQLite, PostgreSQL, etc.)
// without changing the snapshotter.
type Sink interface {
	// Save overwrites the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the stored snapshot. The boolean is false when nothing
	// has been saved yet.
	Load(ctx context.Context) (Snapshot, bool, error)

	// Close releases any resources held by the sink.
	Close() error
}

// Timestamped is implemented by sinks that record when the snapshot was
// written. SavedAt returns ErrNotFound when nothing has been saved.
type Timestamped interface {
	SavedAt(ctx context.Context) (time.Time, error)
}
