package snapshot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls   atomic.Int32
	records []models.RawRecord
	err     error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeCache struct {
	saved *Snapshot
	err   error
}

func (c *fakeCache) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	c.saved = snap
	return c.err
}

func (c *fakeCache) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	return c.saved, c.err
}

var sampleRecords = []models.RawRecord{
	{"text": "coverage is spotty", "topic_name": "coverage", "date": "2024-02-01"},
	{"text": "new plan is great", "topic_name": "plans", "sentiment": "positive"},
}

func TestRefresher_RefreshInstallsAndRunsHooks(t *testing.T) {
	store := NewStore()
	source := &fakeSource{records: sampleRecords}
	r := NewRefresher(source, store, time.Minute).WithLocation(time.UTC)

	var order []string
	r.AddHook("first", func(ctx context.Context, snap *Snapshot) error {
		order = append(order, "first")
		return errors.New("cache down")
	})
	r.AddHook("second", func(ctx context.Context, snap *Snapshot) error {
		order = append(order, "second")
		return nil
	})

	snap, err := r.Refresh(context.Background())

	require.NoError(t, err)
	assert.Same(t, snap, store.Current())
	assert.Len(t, snap.Posts, 2)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRefresher_LoadErrorKeepsPrevious(t *testing.T) {
	store := NewStore()
	source := &fakeSource{records: sampleRecords}
	r := NewRefresher(source, store, time.Minute)

	first, err := r.Refresh(context.Background())
	require.NoError(t, err)

	source.err = errors.New("connection reset")
	_, err = r.Refresh(context.Background())

	assert.ErrorIs(t, err, source.err)
	assert.Same(t, first, store.Current())
}

func TestRefresher_Restore(t *testing.T) {
	store := NewStore()
	r := NewRefresher(&fakeSource{}, store, time.Minute)
	cached := &Snapshot{ID: "cached", LoadedAt: time.Now(), Posts: []models.Post{{Text: "t", TopicName: "x"}}}

	require.NoError(t, r.Restore(context.Background(), &fakeCache{saved: cached}))
	assert.Equal(t, "cached", store.Current().ID)
}

func TestRefresher_RestoreSkipsWhenLoaded(t *testing.T) {
	store := NewStore()
	store.Install(&Snapshot{ID: "live", LoadedAt: time.Now()})
	r := NewRefresher(&fakeSource{}, store, time.Minute)

	require.NoError(t, r.Restore(context.Background(), &fakeCache{saved: &Snapshot{ID: "cached"}}))
	assert.Equal(t, "live", store.Current().ID)
}

// installingCache installs a newer snapshot while the cached one is loaded,
// the way a refresh racing with Restore would.
type installingCache struct {
	store  *Store
	cached *Snapshot
}

func (c *installingCache) SaveSnapshot(ctx context.Context, snap *Snapshot) error { return nil }

func (c *installingCache) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	c.store.Install(&Snapshot{ID: "live", LoadedAt: c.cached.LoadedAt.Add(time.Minute)})
	return c.cached, nil
}

func TestRefresher_RestoreRejectedByNewerInstall(t *testing.T) {
	store := NewStore()
	r := NewRefresher(&fakeSource{}, store, time.Minute)
	cache := &installingCache{store: store, cached: &Snapshot{ID: "cached", LoadedAt: time.Now()}}

	assert.ErrorIs(t, r.Restore(context.Background(), cache), ErrStaleSnapshot)
	assert.Equal(t, "live", store.Current().ID)
}

func TestRefresher_RestoreEmptyCache(t *testing.T) {
	r := NewRefresher(&fakeSource{}, NewStore(), time.Minute)

	assert.ErrorIs(t, r.Restore(context.Background(), &fakeCache{}), ErrNoSnapshot)
}

func TestRefresher_RunPollsUntilCancelled(t *testing.T) {
	source := &fakeSource{records: sampleRecords}
	r := NewRefresher(source, NewStore(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return source.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
