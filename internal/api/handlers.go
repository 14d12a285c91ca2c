package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spacesedan/pulseboard/internal/chat"
	"github.com/spacesedan/pulseboard/internal/engine"
	"github.com/spacesedan/pulseboard/internal/models"
)

type HealthResponse struct {
	Status        string     `json:"status"`
	SnapshotID    string     `json:"snapshot_id,omitempty"`
	LoadedAt      *time.Time `json:"loaded_at,omitempty"`
	PostCount     int        `json:"post_count"`
	Dropped       int        `json:"dropped"`
	ChatHealthy   *bool      `json:"chat_healthy,omitempty"`
	RegionHealthy *bool      `json:"region_healthy,omitempty"`
}

type SatisfactionResponse struct {
	Ratio float64 `json:"ratio"`
	Total int     `json:"total"`
}

// PostView is a post as the dashboard renders it, with the platform icon
// inferred from its URL.
type PostView struct {
	models.Post
	Icon string `json:"icon"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if snap := s.store.Current(); snap != nil {
		loadedAt := snap.LoadedAt
		resp.SnapshotID = snap.ID
		resp.LoadedAt = &loadedAt
		resp.PostCount = len(snap.Posts)
		resp.Dropped = snap.Dropped
	} else {
		resp.Status = "loading"
	}
	if s.opts.ChatHealthy != nil {
		v := s.opts.ChatHealthy.Load()
		resp.ChatHealthy = &v
	}
	if s.opts.RegionHealthy != nil {
		v := s.opts.RegionHealthy.Load()
		resp.RegionHealthy = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	limit, err := s.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, engine.RankTopics(s.posts(), limit))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	limit, err := s.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	posts := s.posts()
	topics := engine.TopicNames(engine.RankTopics(posts, limit))
	writeJSON(w, http.StatusOK, engine.BuildTrendSeries(posts, topics))
}

func (s *Server) handleSatisfaction(w http.ResponseWriter, r *http.Request) {
	posts := s.posts()
	writeJSON(w, http.StatusOK, SatisfactionResponse{
		Ratio: engine.SatisfactionRatio(posts),
		Total: len(posts),
	})
}

func (s *Server) handleTopicPosts(w http.ResponseWriter, r *http.Request) {
	topicName := chi.URLParam(r, "topicName")
	if unescaped, err := url.PathUnescape(topicName); err == nil {
		topicName = unescaped
	}
	query := r.URL.Query()

	opts := engine.SelectOptions{
		SortKey: engine.SortKey(strings.ToLower(strings.TrimSpace(query.Get("sort")))),
	}

	if query.Has("positive") || query.Has("negative") {
		positive, err := flagParam(query.Get("positive"), query.Has("positive"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid positive flag")
			return
		}
		negative, err := flagParam(query.Get("negative"), query.Has("negative"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid negative flag")
			return
		}
		opts.Sentiment = &engine.SentimentFilter{Positive: positive, Negative: negative}
	}

	if region := strings.TrimSpace(query.Get("region")); region != "" {
		opts.Region = s.acceptRegion(r, region)
	}

	selected := engine.SelectForTopic(s.posts(), topicName, opts)
	views := make([]PostView, len(selected))
	for i, p := range selected {
		views[i] = PostView{Post: p, Icon: engine.InferSource(p.URL, p.Source)}
	}
	writeJSON(w, http.StatusOK, views)
}

// acceptRegion returns region when it may be applied, or "" when the region
// service is configured and did not accept it.
func (s *Server) acceptRegion(r *http.Request, region string) string {
	if s.opts.Region == nil {
		return region
	}

	ok, err := s.opts.Region.ApplyRegionFilter(r.Context(), region)
	if err != nil {
		slog.Warn("[API] Region filter service failed, showing all regions",
			slog.String("region", region),
			slog.String("error", err.Error()))
		return ""
	}
	if !ok {
		slog.Info("[API] Region filter rejected", slog.String("region", region))
		return ""
	}
	return region
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, chat.ErrChatUnavailable.Error())
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MAX_BODY_BYTES)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := s.chat.Reply(r.Context(), req.Messages)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
	case errors.Is(err, chat.ErrNoMessages):
		writeError(w, http.StatusBadRequest, "No messages provided")
	case errors.Is(err, chat.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrChatUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) limitParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return s.opts.TopicLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}

// flagParam treats a bare "?positive" as true.
func flagParam(raw string, present bool) (bool, error) {
	if !present {
		return false, nil
	}
	if raw == "" {
		return true, nil
	}
	return strconv.ParseBool(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("[API] Failed to encode response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Debug("[API] Request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("elapsed", time.Since(start)))
	})
}
