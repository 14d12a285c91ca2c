package engine

import (
	"cmp"
	"slices"
	"strings"

	"github.com/spacesedan/pulseboard/internal/models"
)

// SortKey names a post ordering.
type SortKey string

const (
	SortNewest SortKey = "newest"
	SortLikes  SortKey = "likes"
)

// SentimentFilter toggles positive and negative posts. Neutral and unscored
// posts have no toggle and are always shown.
type SentimentFilter struct {
	Positive bool
	Negative bool
}

func (f *SentimentFilter) allows(s models.Sentiment) bool {
	if f == nil {
		return true
	}
	switch s {
	case models.SentimentPositive:
		return f.Positive
	case models.SentimentNegative:
		return f.Negative
	default:
		return true
	}
}

// SelectOptions narrows and orders the posts SelectForTopic returns.
type SelectOptions struct {
	// Sentiment is optional; nil disables sentiment filtering.
	Sentiment *SentimentFilter
	// SortKey defaults to SortNewest. Unknown keys keep input order.
	SortKey SortKey
	// Region, when set, keeps only posts from that region.
	Region string
}

// SelectForTopic returns the posts of one topic (case-insensitive) after the
// region and sentiment filters, sorted by opts.SortKey. Both sorts are stable
// and posts without a date sort after every dated post. posts is not
// modified.
func SelectForTopic(posts []models.Post, topicName string, opts SelectOptions) []models.Post {
	topicName = strings.TrimSpace(topicName)
	region := strings.TrimSpace(opts.Region)

	selected := make([]models.Post, 0)
	for _, post := range posts {
		if !strings.EqualFold(post.TopicName, topicName) {
			continue
		}
		if region != "" && !strings.EqualFold(post.Region, region) {
			continue
		}
		if !opts.Sentiment.allows(post.Sentiment) {
			continue
		}
		selected = append(selected, post)
	}

	SortPosts(selected, opts.SortKey)
	return selected
}

// SortPosts stable-sorts posts in place by key. An empty key sorts newest
// first; unknown keys leave the order alone.
func SortPosts(posts []models.Post, key SortKey) {
	switch key {
	case SortLikes:
		slices.SortStableFunc(posts, func(a, b models.Post) int {
			return cmp.Compare(b.Likes, a.Likes)
		})
	case SortNewest, "":
		slices.SortStableFunc(posts, compareNewest)
	}
}

func compareNewest(a, b models.Post) int {
	switch {
	case a.Date == nil && b.Date == nil:
		return 0
	case a.Date == nil:
		return 1
	case b.Date == nil:
		return -1
	}
	return b.Date.Compare(*a.Date)
}
