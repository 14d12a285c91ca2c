package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/pulseboard/internal/loader"
)

// Hook runs after a snapshot is installed. Failures are logged only.
type Hook func(ctx context.Context, snap *Snapshot) error

// Cache persists the last good snapshot across restarts.
type Cache interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

type namedHook struct {
	name string
	fn   Hook
}

// Refresher re-reads the source on an interval and installs each result as
// a complete replacement of the previous post set.
type Refresher struct {
	source   loader.Source
	store    *Store
	interval time.Duration
	location *time.Location
	hooks    []namedHook
}

func NewRefresher(source loader.Source, store *Store, interval time.Duration) *Refresher {
	return &Refresher{
		source:   source,
		store:    store,
		interval: interval,
		location: time.Local,
	}
}

// WithLocation sets the calendar used to place posts into months.
func (r *Refresher) WithLocation(loc *time.Location) *Refresher {
	if loc != nil {
		r.location = loc
	}
	return r
}

// AddHook registers fn to run, in registration order, after every install.
func (r *Refresher) AddHook(name string, fn Hook) {
	r.hooks = append(r.hooks, namedHook{name: name, fn: fn})
}

// Refresh loads, normalizes and installs one snapshot. On a load error the
// previous snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	records, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Refresher] failed to load %s: %w", r.source.Name(), err)
	}

	snap := New(r.source.Name(), records, r.location)
	if !r.store.Install(snap) {
		slog.Warn("[Refresher] Newer snapshot already installed, discarding",
			slog.String("snapshot_id", snap.ID))
		return snap, nil
	}

	slog.Info("[Refresher] Installed snapshot",
		slog.String("snapshot_id", snap.ID),
		slog.Int("posts", len(snap.Posts)),
		slog.Int("dropped", snap.Dropped),
		slog.Duration("elapsed", time.Since(start)))

	r.runHooks(ctx, snap)
	return snap, nil
}

func (r *Refresher) runHooks(ctx context.Context, snap *Snapshot) {
	for _, hook := range r.hooks {
		if err := hook.fn(ctx, snap); err != nil {
			slog.Warn("[Refresher] Snapshot hook failed",
				slog.String("hook", hook.name),
				slog.String("snapshot_id", snap.ID),
				slog.String("error", err.Error()))
		}
	}
}

// Restore installs the cached snapshot when nothing has been loaded yet.
func (r *Refresher) Restore(ctx context.Context, cache Cache) error {
	if r.store.Current() != nil {
		return nil
	}

	snap, err := cache.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("[Refresher] failed to restore cached snapshot: %w", err)
	}
	if snap == nil {
		return ErrNoSnapshot
	}

	if !r.store.Install(snap) {
		slog.Info("[Refresher] Cached snapshot is older than the installed one, skipped",
			slog.String("snapshot_id", snap.ID))
		return ErrStaleSnapshot
	}
	slog.Info("[Refresher] Restored cached snapshot",
		slog.String("snapshot_id", snap.ID),
		slog.Int("posts", len(snap.Posts)),
		slog.Time("loaded_at", snap.LoadedAt))
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil {
		slog.Error("[Refresher] Initial refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("[Refresher] Stopping")
			return
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil {
				slog.Error("[Refresher] Refresh failed, keeping previous snapshot",
					slog.String("error", err.Error()))
			}
		}
	}
}
