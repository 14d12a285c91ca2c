package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/pulseboard/internal/models"
)

var ErrDeliveryTimeout = errors.New("timed out waiting for delivery report")

// messageProducer is the part of *kafka.Producer the publisher needs.
type messageProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// SnapshotPublisher announces every installed snapshot on a Kafka topic.
type SnapshotPublisher struct {
	producer messageProducer
	topic    string
	retry    time.Duration
}

func NewSnapshotPublisher(cfg KafkaConfig) (*SnapshotPublisher, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"client.id":                             cfg.ClientID,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &SnapshotPublisher{producer: p, topic: cfg.Topic, retry: RETRY_DELAY}, nil
}

// Publish sends event keyed by its snapshot ID and waits for the broker to
// acknowledge it.
func (sp *SnapshotPublisher) Publish(ctx context.Context, event models.SnapshotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to marshal event: %w", err)
	}

	topic := sp.topic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.SnapshotID),
		Value:          payload,
	}

	deliveryChan := make(chan kafka.Event, 1)
	for i := 0; i < MAX_RETRIES; i++ {
		err = sp.producer.Produce(msg, deliveryChan)
		if err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(sp.retry)
	}
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to produce after %d attempts: %w", MAX_RETRIES, err)
	}

	timer := time.NewTimer(DELIVERY_TIMEOUT)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("[KafkaClient] %w", ErrDeliveryTimeout)
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("[KafkaClient] unexpected delivery event: %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("[KafkaClient] delivery failed: %w", m.TopicPartition.Error)
		}
	}

	slog.Info("[KafkaClient] Published snapshot event",
		slog.String("topic", sp.topic),
		slog.String("snapshot_id", event.SnapshotID),
		slog.Int("post_count", event.PostCount))
	return nil
}

func (sp *SnapshotPublisher) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := sp.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	sp.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}
