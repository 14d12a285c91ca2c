package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/pulseboard/internal/snapshot"
	"github.com/spacesedan/pulseboard/internal/utils"
)

const (
	MAX_BATCH_SIZE      = 25
	MAX_UNPROCESSED_TRY = 3
	DEFAULT_ARCHIVE_TTL = 30 * 24 * time.Hour
)

// BatchWriter is the part of *dynamodb.Client the archive uses.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ArchivedPost is one row of the archive table, keyed by snapshot and
// position within it.
type ArchivedPost struct {
	SnapshotID string `dynamodbav:"snapshot_id"`
	Seq        int    `dynamodbav:"seq"`
	Text       string `dynamodbav:"text"`
	TopicName  string `dynamodbav:"topic_name"`
	Date       string `dynamodbav:"date,omitempty"`
	Sentiment  string `dynamodbav:"sentiment,omitempty"`
	Source     string `dynamodbav:"source"`
	Likes      int    `dynamodbav:"likes"`
	Title      string `dynamodbav:"title,omitempty"`
	URL        string `dynamodbav:"url,omitempty"`
	Region     string `dynamodbav:"region,omitempty"`
	LoadedAt   int64  `dynamodbav:"loaded_at"`
	ExpiresAt  int64  `dynamodbav:"expires_at"`
}

type PostArchive struct {
	client  BatchWriter
	table   string
	ttl     time.Duration
	backoff time.Duration
}

func NewPostArchive(client BatchWriter, table string) *PostArchive {
	return &PostArchive{
		client:  client,
		table:   table,
		ttl:     DEFAULT_ARCHIVE_TTL,
		backoff: 500 * time.Millisecond,
	}
}

// ArchiveSnapshot writes every post of snap to the archive table.
func (pa *PostArchive) ArchiveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	expirationTime := time.Now().Add(pa.ttl).Unix()
	buffer := utils.NewBatchBuffer[types.WriteRequest](MAX_BATCH_SIZE)
	written := 0

	for i, post := range snap.Posts {
		row := ArchivedPost{
			SnapshotID: snap.ID,
			Seq:        i,
			Text:       post.Text,
			TopicName:  post.TopicName,
			Sentiment:  string(post.Sentiment),
			Source:     post.Source,
			Likes:      post.Likes,
			Title:      post.Title,
			URL:        post.URL,
			Region:     post.Region,
			LoadedAt:   snap.LoadedAt.Unix(),
			ExpiresAt:  expirationTime,
		}
		if post.Date != nil {
			row.Date = post.Date.Format(time.RFC3339)
		}

		item, err := attributevalue.MarshalMap(row)
		if err != nil {
			return fmt.Errorf("[DynamoDB] failed to marshal post %d: %w", i, err)
		}

		if buffer.Add(types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}) {
			if err := pa.writeBatch(ctx, buffer.GetAndClear()); err != nil {
				return err
			}
			written += MAX_BATCH_SIZE
		}
	}

	if buffer.HasData() {
		batch := buffer.GetAndClear()
		if err := pa.writeBatch(ctx, batch); err != nil {
			return err
		}
		written += len(batch)
	}

	slog.Info("[DynamoDB] Archived snapshot",
		slog.String("table", pa.table),
		slog.String("snapshot_id", snap.ID),
		slog.Int("items", written))
	return nil
}

func (pa *PostArchive) writeBatch(ctx context.Context, writeRequests []types.WriteRequest) error {
	select {
	case <-ctx.Done():
		slog.Warn("[DynamoDB] context canceled")
		return ctx.Err()
	default:
	}

	out, err := pa.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			pa.table: writeRequests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write posts: %w", err)
	}

	retryCount := 0
	backoff := pa.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < MAX_UNPROCESSED_TRY {
		time.Sleep(backoff)
		backoff *= 2
		slog.Warn("[DynamoDB] Retrying unprocessed items...",
			slog.Int("retry_attempt", retryCount+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[pa.table])))

		out, err = pa.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[pa.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d items not written after %d retries", remaining, MAX_UNPROCESSED_TRY)
	}
	return nil
}
