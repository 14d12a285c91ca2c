package kafka_client

import "time"

const (
	KAFKA_TOPIC_SNAPSHOTS = "dashboard-snapshots" // one summary event per installed snapshot
)

const (
	DELIVERY_TIMEOUT = 10 * time.Second
	FLUSH_TIMEOUT_MS = 5000
	MAX_RETRIES      = 3
	RETRY_DELAY      = 500 * time.Millisecond
)
