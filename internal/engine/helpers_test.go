package engine

import (
	"time"

	"github.com/spacesedan/pulseboard/internal/models"
)

func post(topic string) models.Post {
	return models.Post{Text: "text", TopicName: topic, Source: "reddit"}
}

func datedPost(topic, date string) models.Post {
	p := post(topic)
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	p.Date = &d
	return p
}

func withSentiment(p models.Post, s models.Sentiment) models.Post {
	p.Sentiment = s
	return p
}

func texts(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Text
	}
	return out
}
