// Package api serves the dashboard's read endpoints and the chat relay over
// HTTP.
package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/spacesedan/pulseboard/internal/snapshot"
)

const (
	REQUEST_TIMEOUT = 90 * time.Second
	MAX_BODY_BYTES  = 1 << 20
)

// SnapshotReader exposes the installed snapshot.
type SnapshotReader interface {
	Current() *snapshot.Snapshot
}

// ChatReplier answers a dashboard conversation.
type ChatReplier interface {
	Reply(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// RegionFilter is the remote service that must accept a region before a
// topic view is narrowed to it.
type RegionFilter interface {
	ApplyRegionFilter(ctx context.Context, region string) (bool, error)
}

type Options struct {
	TopicLimit     int
	AllowedOrigins []string
	// Region may be nil, in which case region filters apply directly.
	Region RegionFilter
	// ChatHealthy and RegionHealthy are optional upstream health flags.
	ChatHealthy   *atomic.Bool
	RegionHealthy *atomic.Bool
}

type Server struct {
	store SnapshotReader
	chat  ChatReplier
	opts  Options
}

func NewServer(store SnapshotReader, chat ChatReplier, opts Options) *Server {
	if opts.TopicLimit <= 0 {
		opts.TopicLimit = 10
	}
	return &Server{store: store, chat: chat, opts: opts}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(DefaultCORSConfig(s.opts.AllowedOrigins)))
	r.Use(middleware.Timeout(REQUEST_TIMEOUT))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/topics", s.handleTopics)
		r.Get("/topics/{topicName}/posts", s.handleTopicPosts)
		r.Get("/trends", s.handleTrends)
		r.Get("/satisfaction", s.handleSatisfaction)
		r.Post("/chat", s.handleChat)
	})

	return r
}

func (s *Server) posts() []models.Post {
	if snap := s.store.Current(); snap != nil {
		return snap.Posts
	}
	return nil
}
