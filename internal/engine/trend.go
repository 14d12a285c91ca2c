package engine

import (
	"fmt"
	"time"

	"github.com/spacesedan/pulseboard/internal/models"
)

// BuildTrendSeries buckets dated posts of the given topics by calendar month.
// The result covers every month from the earliest to the latest qualifying
// post with no gaps, and every point carries every topic (zero when absent).
// Undated posts are skipped. No qualifying posts yields an empty series.
func BuildTrendSeries(posts []models.Post, topics []string) models.TrendSeries {
	wanted := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		wanted[topic] = struct{}{}
	}

	buckets := make(map[int]map[string]int)
	lo, hi := 0, 0
	for _, post := range posts {
		if post.Date == nil {
			continue
		}
		if _, ok := wanted[post.TopicName]; !ok {
			continue
		}

		idx := monthIndex(*post.Date)
		if len(buckets) == 0 || idx < lo {
			lo = idx
		}
		if len(buckets) == 0 || idx > hi {
			hi = idx
		}

		bucket, ok := buckets[idx]
		if !ok {
			bucket = make(map[string]int)
			buckets[idx] = bucket
		}
		bucket[post.TopicName]++
	}

	if len(buckets) == 0 {
		return models.TrendSeries{}
	}

	series := make(models.TrendSeries, 0, hi-lo+1)
	for idx := lo; idx <= hi; idx++ {
		counts := make(map[string]int, len(topics))
		for _, topic := range topics {
			counts[topic] = buckets[idx][topic]
		}
		series = append(series, models.TrendPoint{
			Month:  monthKey(idx),
			Counts: counts,
		})
	}
	return series
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func monthKey(idx int) string {
	return fmt.Sprintf("%04d-%02d", idx/12, idx%12+1)
}
