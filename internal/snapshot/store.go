package snapshot

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/pulseboard/internal/engine"
	"github.com/spacesedan/pulseboard/internal/models"
)

var (
	ErrNoSnapshot    = errors.New("no snapshot installed")
	ErrStaleSnapshot = errors.New("snapshot older than the installed one")
)

// Snapshot is one complete, normalized post set. It is never modified after
// construction.
type Snapshot struct {
	ID       string        `json:"id"`
	Source   string        `json:"source"`
	LoadedAt time.Time     `json:"loaded_at"`
	Posts    []models.Post `json:"posts"`
	Dropped  int           `json:"dropped"`
}

// New normalizes records into a fresh snapshot.
func New(source string, records []models.RawRecord, loc *time.Location) *Snapshot {
	posts := engine.NormalizeIn(records, loc)
	return &Snapshot{
		ID:       uuid.NewString(),
		Source:   source,
		LoadedAt: time.Now(),
		Posts:    posts,
		Dropped:  len(records) - len(posts),
	}
}

// Event summarizes the snapshot with its top topics.
func (s *Snapshot) Event(topicLimit int) models.SnapshotEvent {
	return models.SnapshotEvent{
		SnapshotID:   s.ID,
		LoadedAt:     s.LoadedAt,
		PostCount:    len(s.Posts),
		Dropped:      s.Dropped,
		Satisfaction: engine.SatisfactionRatio(s.Posts),
		TopTopics:    engine.RankTopics(s.Posts, topicLimit),
	}
}

// Store holds the snapshot readers see. Reads are lock-free; installs are
// serialized so a slow fetch can never replace a newer set.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Install swaps in snap unless it is nil or older than the installed one.
func (s *Store) Install(snap *Snapshot) bool {
	if snap == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.current.Load(); cur != nil && snap.LoadedAt.Before(cur.LoadedAt) {
		return false
	}
	s.current.Store(snap)
	return true
}

// Current returns the installed snapshot, or nil before the first install.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Posts returns the installed post set. Callers must not modify it.
func (s *Store) Posts() []models.Post {
	if cur := s.current.Load(); cur != nil {
		return cur.Posts
	}
	return nil
}
