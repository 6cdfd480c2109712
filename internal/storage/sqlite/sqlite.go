// Package sqlite provides a SQLite-backed implementation of the storage.Sink interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/fairshare/internal/storage"
)

// Ensure SnapshotStore implements storage.Sink
var (
	_ storage.Sink        = (*SnapshotStore)(nil)
	_ storage.Timestamped = (*SnapshotStore)(nil)
)

// SnapshotStore keeps the serialized cap table in a single SQLite row.
type SnapshotStore struct {
	db *sql.DB
}

// New creates a new SnapshotStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SnapshotStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save overwrites the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap storage.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state (key, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		storage.SnapshotKey, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or false when none has been saved.
func (s *SnapshotStore) Load(ctx context.Context) (storage.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM state WHERE key = ?",
		storage.SnapshotKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Snapshot{}, false, nil
	}
	if err != nil {
		return storage.Snapshot{}, false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return storage.Snapshot{}, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, true, nil
}

// SavedAt returns when the snapshot was last written.
func (s *SnapshotStore) SavedAt(ctx context.Context) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx,
		"SELECT saved_at FROM state WHERE key = ?",
		storage.SnapshotKey,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storage.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query snapshot time: %w", err)
	}
	return time.Unix(ts, 0), nil
}
