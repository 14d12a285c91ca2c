package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("REFRESH_INTERVAL", "")
	t.Setenv("TOPIC_LIMIT", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, DEFAULT_LISTEN_ADDR, cfg.ListenAddr)
	assert.Equal(t, DEFAULT_REFRESH_INTERVAL, cfg.RefreshInterval)
	assert.Equal(t, DEFAULT_TOPIC_LIMIT, cfg.TopicLimit)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("REFRESH_INTERVAL", "30")
	t.Setenv("SNAPSHOT_TTL", "2h")
	t.Setenv("TOPIC_LIMIT", "5")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://dash.example.com ,")
	t.Setenv("VALKEY_TLS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 2*time.Hour, cfg.SnapshotTTL)
	assert.Equal(t, 5, cfg.TopicLimit)
	assert.Equal(t, []string{"http://localhost:5173", "https://dash.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.ValkeyTLS)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "soon")
	t.Setenv("TOPIC_LIMIT", "-3")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	assert.Equal(t, DEFAULT_REFRESH_INTERVAL, cfg.RefreshInterval)
	assert.Equal(t, DEFAULT_TOPIC_LIMIT, cfg.TopicLimit)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
