package models

import "time"

type RedditPost struct {
	Subreddit string    `json:"subreddit"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Upvotes   int       `json:"upvotes"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	PostID    string    `json:"id"`
}

type RedditAPIResponse struct {
	Data RedditAPIData `json:"data"`
}

type RedditAPIData struct {
	After    string           `json:"after"`
	Children []RedditAPIChild `json:"children"`
}

type RedditAPIChild struct {
	Data RedditAPIClildData `json:"data"`
}

type RedditAPIClildData struct {
	Subreddit  string  `json:"subreddit"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Score      int     `json:"score"`
	URL        string  `json:"url"`
	CreatedUTC float64 `json:"created_utc"`
	ID         string  `json:"id"`
	Name       string  `json:"name"`
}
