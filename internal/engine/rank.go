package engine

import (
	"cmp"
	"slices"

	"github.com/spacesedan/pulseboard/internal/models"
)

// RankTopics counts posts per topic, most frequent first. Ties keep the order
// in which topics first appear in posts. limit <= 0 returns every topic.
func RankTopics(posts []models.Post, limit int) []models.TopicCount {
	index := make(map[string]int)
	ranking := make([]models.TopicCount, 0)

	for _, post := range posts {
		i, ok := index[post.TopicName]
		if !ok {
			i = len(ranking)
			index[post.TopicName] = i
			ranking = append(ranking, models.TopicCount{TopicName: post.TopicName})
		}
		ranking[i].Count++
	}

	slices.SortStableFunc(ranking, func(a, b models.TopicCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// TopicNames returns the topic names of ranking in order.
func TopicNames(ranking []models.TopicCount) []string {
	names := make([]string, len(ranking))
	for i, tc := range ranking {
		names[i] = tc.TopicName
	}
	return names
}
