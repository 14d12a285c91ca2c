package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DEFAULT_LISTEN_ADDR      = ":5001"
	DEFAULT_DATA_URI         = "data/tmobile_reviews_labeled.csv"
	DEFAULT_REFRESH_INTERVAL = 5 * time.Minute
	DEFAULT_TOPIC_LIMIT      = 10
	DEFAULT_CHAT_BASE_URL    = "https://integrate.api.nvidia.com/v1"
	DEFAULT_CHAT_MODEL       = "qwen/qwen3-next-80b-a3b-instruct"
	DEFAULT_SNAPSHOT_TTL     = 24 * time.Hour
	DEFAULT_AWS_REGION       = "us-west-2"
	DEFAULT_SNAPSHOT_TOPIC   = "dashboard-snapshots"
	DEFAULT_HEALTHCHECK      = 15 * time.Second
)

// AppConfig is everything the dashboard binary reads from the environment.
// Optional integrations are disabled when their address is empty.
type AppConfig struct {
	Env             string
	ListenAddr      string
	LogLevel        slog.Level
	AllowedOrigins  []string
	DataURI         string
	RefreshInterval time.Duration
	TopicLimit      int

	ChatAPIKey  string
	ChatBaseURL string
	ChatModel   string

	RegionFilterURL string

	HealthcheckInterval time.Duration

	ValkeyAddr     string
	ValkeyPassword string
	ValkeyTLS      bool
	SnapshotTTL    time.Duration

	AWSRegion    string
	AWSEndpoint  string
	ArchiveTable string

	KafkaBroker        string
	KafkaSnapshotTopic string
}

// Load reads AppConfig from the environment. Malformed values fall back to
// their defaults with a warning rather than failing startup.
func Load() AppConfig {
	return AppConfig{
		Env:             getEnv("APP_ENV", "dev"),
		ListenAddr:      getEnv("LISTEN_ADDR", DEFAULT_LISTEN_ADDR),
		LogLevel:        getLevel("LOG_LEVEL", slog.LevelInfo),
		AllowedOrigins:  getList("ALLOWED_ORIGINS"),
		DataURI:         getEnv("DATA_URI", DEFAULT_DATA_URI),
		RefreshInterval: getDuration("REFRESH_INTERVAL", DEFAULT_REFRESH_INTERVAL),
		TopicLimit:      getInt("TOPIC_LIMIT", DEFAULT_TOPIC_LIMIT),

		ChatAPIKey:  os.Getenv("NVIDIA_API_KEY"),
		ChatBaseURL: getEnv("CHAT_BASE_URL", DEFAULT_CHAT_BASE_URL),
		ChatModel:   getEnv("CHAT_MODEL", DEFAULT_CHAT_MODEL),

		RegionFilterURL: os.Getenv("REGION_FILTER_URL"),

		HealthcheckInterval: getDuration("HEALTHCHECK_INTERVAL", DEFAULT_HEALTHCHECK),

		ValkeyAddr:     os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      os.Getenv("VALKEY_TLS") == "true",
		SnapshotTTL:    getDuration("SNAPSHOT_TTL", DEFAULT_SNAPSHOT_TTL),

		AWSRegion:    getEnv("AWS_REGION", DEFAULT_AWS_REGION),
		AWSEndpoint:  os.Getenv("AWS_ENDPOINT"),
		ArchiveTable: os.Getenv("ARCHIVE_TABLE_NAME"),

		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		KafkaSnapshotTopic: getEnv("KAFKA_SNAPSHOT_TOPIC", DEFAULT_SNAPSHOT_TOPIC),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("[Config] Invalid integer, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return v
}

// getDuration accepts Go durations ("90s", "5m") or a bare number of seconds,
// which is how the producer intervals were always configured.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("[Config] Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

func getLevel(key string, defaultValue slog.Level) slog.Level {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("[Config] Invalid log level, using default",
			slog.String("key", key),
			slog.String("value", raw))
		return defaultValue
	}
	return level
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
