// Package postgres persists cap-table snapshots to PostgreSQL through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmynk/fairshare/internal/storage"
)

var (
	_ storage.Sink        = (*SnapshotStore)(nil)
	_ storage.Timestamped = (*SnapshotStore)(nil)
)

// Queryer is the subset of pgxpool.Pool the snapshot store uses.
type Queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	createStateTable = `CREATE TABLE IF NOT EXISTS fairshare_state (
    key TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    saved_at TIMESTAMPTZ NOT NULL
)`

	upsertSnapshot = `INSERT INTO fairshare_state (key, payload, saved_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at`

	selectSnapshot = `SELECT payload FROM fairshare_state WHERE key = $1`

	selectSavedAt = `SELECT saved_at FROM fairshare_state WHERE key = $1`
)

// SnapshotStore keeps the serialized cap table in a single PostgreSQL row.
type SnapshotStore struct {
	db    Queryer
	close func()
	now   func() time.Time
}

// NewSnapshotStore wraps db. closeFn is invoked by Close and may be nil.
func NewSnapshotStore(db Queryer, closeFn func()) *SnapshotStore {
	return &SnapshotStore{db: db, close: closeFn, now: time.Now}
}

// EnsureSchema creates the snapshot table when it is missing.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createStateTable); err != nil {
		return fmt.Errorf("postgres: ensure state table: %w", err)
	}
	return nil
}

// Save overwrites the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap storage.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("postgres: encode snapshot: %w", err)
	}
	if _, err := s.db.Exec(ctx, upsertSnapshot, storage.SnapshotKey, payload, s.now().UTC()); err != nil {
		return fmt.Errorf("postgres: upsert snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or false when none has been saved.
func (s *SnapshotStore) Load(ctx context.Context) (storage.Snapshot, bool, error) {
	var payload []byte
	if err := s.db.QueryRow(ctx, selectSnapshot, storage.SnapshotKey).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Snapshot{}, false, nil
		}
		return storage.Snapshot{}, false, fmt.Errorf("postgres: select snapshot: %w", err)
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return storage.Snapshot{}, false, fmt.Errorf("postgres: decode snapshot: %w", err)
	}
	return snap, true, nil
}

// SavedAt returns when the snapshot was last written.
func (s *SnapshotStore) SavedAt(ctx context.Context) (time.Time, error) {
	var savedAt time.Time
	if err := s.db.QueryRow(ctx, selectSavedAt, storage.SnapshotKey).Scan(&savedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("postgres: select snapshot time: %w", err)
	}
	return savedAt, nil
}

// Close releases the underlying pool.
func (s *SnapshotStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
