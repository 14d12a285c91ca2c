package engine

import "github.com/spacesedan/pulseboard/internal/models"

// SatisfactionRatio is the percentage (0-100) of posts labeled positive.
// Unscored posts count toward the total. An empty set reports 0, which reads
// the same as "nobody is happy"; callers that need to tell the two apart must
// check len(posts). Rounding is left to the presentation layer.
func SatisfactionRatio(posts []models.Post) float64 {
	if len(posts) == 0 {
		return 0
	}

	positive := 0
	for _, post := range posts {
		if post.Sentiment == models.SentimentPositive {
			positive++
		}
	}
	return 100 * float64(positive) / float64(len(posts))
}
