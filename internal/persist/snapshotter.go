// Package persist periodically copies the entity store to a snapshot sink
// and restores it on startup.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/fairshare/internal/storage"
)

// DefaultInterval is the time between periodic saves.
const DefaultInterval = 5 * time.Second

// finalSaveTimeout bounds the save performed after Run's context ends.
const finalSaveTimeout = 10 * time.Second

// Source produces a consistent copy of the current state.
type Source interface {
	Export() storage.Snapshot
}

// Target replaces its state with a snapshot.
type Target interface {
	Import(snap storage.Snapshot)
}

// Snapshotter saves the source to the sink on a fixed interval.
type Snapshotter struct {
	source   Source
	sink     storage.Sink
	interval time.Duration
	onResult func(error)
}

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithResultHook registers fn to be called after every save attempt.
func WithResultHook(fn func(error)) Option {
	return func(s *Snapshotter) { s.onResult = fn }
}

// NewSnapshotter creates a Snapshotter. A non-positive interval means
// DefaultInterval.
func NewSnapshotter(source Source, sink storage.Sink, interval time.Duration, opts ...Option) *Snapshotter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Snapshotter{source: source, sink: sink, interval: interval}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveNow writes the current state to the sink.
func (s *Snapshotter) SaveNow(ctx context.Context) error {
	start := time.Now()
	err := s.sink.Save(ctx, s.source.Export())
	if s.onResult != nil {
		s.onResult(err)
	}
	if err != nil {
		slog.Error("Snapshot save failed", "error", err)
		return fmt.Errorf("persist: save snapshot: %w", err)
	}
	slog.Debug("Snapshot saved", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Run saves once immediately, then on every tick until ctx is done, and
// once more on the way out. Save failures are logged and do not stop the
// loop.
func (s *Snapshotter) Run(ctx context.Context) {
	slog.Info("Snapshotter started", "interval", s.interval)

	_ = s.SaveNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			_ = s.SaveNow(finalCtx)
			cancel()
			slog.Info("Snapshotter stopped")
			return
		case <-ticker.C:
			_ = s.SaveNow(ctx)
		}
	}
}

// Restore loads the last snapshot from sink into target. It reports false
// when the sink holds nothing.
func Restore(ctx context.Context, sink storage.Sink, target Target) (bool, error) {
	snap, ok, err := sink.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("persist: load snapshot: %w", err)
	}
	if !ok {
		slog.Info("No snapshot found, starting empty")
		return false, nil
	}
	target.Import(snap)
	slog.Info("Snapshot restored",
		"shareholders", len(snap.Shareholders),
		"grants", len(snap.Grants),
		"users", len(snap.Users),
		"has_company", snap.Company != nil,
	)
	return true, nil
}
