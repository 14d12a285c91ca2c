package models

import "time"

// SnapshotEvent summarizes an installed post set for downstream listeners.
type SnapshotEvent struct {
	SnapshotID   string       `json:"snapshot_id"`
	LoadedAt     time.Time    `json:"loaded_at"`
	PostCount    int          `json:"post_count"`
	Dropped      int          `json:"dropped"`
	Satisfaction float64      `json:"satisfaction"`
	TopTopics    []TopicCount `json:"top_topics"`
}
