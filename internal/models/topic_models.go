package models

type TopicCount struct {
	TopicName string `json:"topic_name"`
	Count     int    `json:"count"`
}

// TrendPoint holds per-topic post counts for one calendar month (YYYY-MM).
type TrendPoint struct {
	Month  string         `json:"month"`
	Counts map[string]int `json:"counts"`
}

type TrendSeries []TrendPoint
