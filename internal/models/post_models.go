package models

import "time"

// RawRecord is one decoded row of a tabular export, keyed by column name.
type RawRecord map[string]string

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	// SentimentUnscored marks a post whose label was missing or unrecognized.
	SentimentUnscored Sentiment = ""
)

const DEFAULT_POST_SOURCE = "reddit"

// Post is a validated record. Text and TopicName are never empty.
type Post struct {
	Text      string     `json:"text"`
	TopicName string     `json:"topic_name"`
	Date      *time.Time `json:"date"`
	Sentiment Sentiment  `json:"sentiment,omitempty"`
	Source    string     `json:"source"`
	Likes     int        `json:"likes"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Region    string     `json:"region,omitempty"`
}
