// Package engine derives the dashboard views (topic rankings, monthly trends,
// satisfaction and topic detail lists) from tabular post records. Every
// function here is pure: no I/O, no shared state, no errors.
package engine

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spacesedan/pulseboard/internal/models"
)

// Raw column aliases, checked in order after keys are lower-cased.
var (
	textKeys      = []string{"text", "review", "body"}
	topicKeys     = []string{"topic_name", "topic", "topicname"}
	dateKeys      = []string{"date", "created_at", "timestamp"}
	sentimentKeys = []string{"sentiment", "sentiment_label"}
	likesKeys     = []string{"likes", "thanks", "score", "upvotes"}
	regionKeys    = []string{"region", "location"}
)

// placeholders the labeling scripts leave behind for an unknown region
var missingRegion = map[string]struct{}{
	"n/a":  {},
	"na":   {},
	"none": {},
	"nan":  {},
	"null": {},
}

// Normalize converts raw records into posts using the local time zone for
// calendar placement. See NormalizeIn.
func Normalize(records []models.RawRecord) []models.Post {
	return NormalizeIn(records, time.Local)
}

// NormalizeIn converts raw records into posts, preserving input order. Records
// without text or topic are dropped; every other field degrades to its
// default instead of rejecting the row. Parsed dates are moved into loc so
// month bucketing follows that calendar.
func NormalizeIn(records []models.RawRecord, loc *time.Location) []models.Post {
	if loc == nil {
		loc = time.Local
	}

	posts := make([]models.Post, 0, len(records))
	for _, record := range records {
		post, ok := normalizeRecord(lowerKeys(record), loc)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

func normalizeRecord(fields map[string]string, loc *time.Location) (models.Post, bool) {
	text := first(fields, textKeys...)
	topic := first(fields, topicKeys...)
	if text == "" || topic == "" {
		return models.Post{}, false
	}

	source := first(fields, "source")
	if source == "" {
		source = models.DEFAULT_POST_SOURCE
	}

	return models.Post{
		Text:      text,
		TopicName: topic,
		Date:      parseDate(first(fields, dateKeys...), loc),
		Sentiment: ParseSentiment(first(fields, sentimentKeys...)),
		Source:    source,
		Likes:     parseLikes(first(fields, likesKeys...)),
		Title:     first(fields, "title"),
		URL:       first(fields, "url"),
		Region:    parseRegion(first(fields, regionKeys...)),
	}, true
}

// lowerKeys folds column names to lower case. When two columns collapse to
// the same name the first non-empty one in sorted key order wins, so the
// result does not depend on map iteration order.
func lowerKeys(record models.RawRecord) map[string]string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fields := make(map[string]string, len(record))
	for _, k := range keys {
		key := strings.ToLower(strings.TrimSpace(k))
		if existing, ok := fields[key]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		fields[key] = record[k]
	}
	return fields
}

func first(fields map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(fields[key]); v != "" {
			return v
		}
	}
	return ""
}

const (
	MIN_DATE_YEAR = 1970
	MAX_DATE_YEAR = 9999
)

// parseDate returns nil for anything dateparse rejects or resolves outside
// [MIN_DATE_YEAR, MAX_DATE_YEAR]. Fragments like "12:" or "Jan 1" parse to
// year 0.
func parseDate(raw string, loc *time.Location) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil || t.Year() < MIN_DATE_YEAR || t.Year() > MAX_DATE_YEAR {
		return nil
	}
	t = t.In(loc)
	return &t
}

// ParseSentiment maps a label onto the known sentiments, case-insensitively.
// Anything else is unscored.
func ParseSentiment(raw string) models.Sentiment {
	switch models.Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	case models.SentimentNeutral:
		return models.SentimentNeutral
	default:
		return models.SentimentUnscored
	}
}

// parseLikes reads counts the way pandas writes them ("12", "12.0", "1,204").
func parseLikes(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

func parseRegion(raw string) string {
	if _, ok := missingRegion[strings.ToLower(raw)]; ok {
		return ""
	}
	return raw
}
