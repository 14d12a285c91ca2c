package engine

import (
	"testing"

	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSatisfactionRatio(t *testing.T) {
	assert.Equal(t, 0.0, SatisfactionRatio(nil))
	assert.Equal(t, 0.0, SatisfactionRatio([]models.Post{}))

	posts := []models.Post{
		withSentiment(post("x"), models.SentimentPositive),
		withSentiment(post("x"), models.SentimentPositive),
		withSentiment(post("x"), models.SentimentPositive),
		withSentiment(post("x"), models.SentimentNegative),
		post("x"),
	}
	assert.InDelta(t, 60.0, SatisfactionRatio(posts), 1e-9)
}

func TestSatisfactionRatio_FullPrecision(t *testing.T) {
	posts := []models.Post{
		withSentiment(post("x"), models.SentimentPositive),
		withSentiment(post("x"), models.SentimentNeutral),
		withSentiment(post("x"), models.SentimentNegative),
	}

	assert.InDelta(t, 100.0/3.0, SatisfactionRatio(posts), 1e-12)
}
