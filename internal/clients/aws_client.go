package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AWSClients bundles the service clients built from one shared config. An
// empty endpoint targets the real AWS endpoints; otherwise every client is
// pointed at it (dynamodb-local, localstack).
type AWSClients struct {
	Config   aws.Config
	endpoint string
}

func NewAWSClients(ctx context.Context, region, endpoint string) (*AWSClients, error) {
	slog.Info("[AWSClient] Initializing AWS Config...",
		slog.String("region", region),
		slog.String("endpoint", endpoint))

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("[AWSClient] failed to load AWS config: %w", err)
	}

	slog.Info("[AWSClient] AWS Config Initialized")
	return &AWSClients{Config: cfg, endpoint: endpoint}, nil
}

func (a *AWSClients) DynamoDB() *dynamodb.Client {
	return dynamodb.NewFromConfig(a.Config, func(o *dynamodb.Options) {
		if a.endpoint != "" {
			o.BaseEndpoint = aws.String(a.endpoint)
		}
	})
}

func (a *AWSClients) S3() *s3.Client {
	return s3.NewFromConfig(a.Config, func(o *s3.Options) {
		if a.endpoint != "" {
			o.BaseEndpoint = aws.String(a.endpoint)
			o.UsePathStyle = true
		}
	})
}
