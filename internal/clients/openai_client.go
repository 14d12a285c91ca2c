package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spacesedan/pulseboard/internal/models"
)

const (
	openAIRequestTimeout = 60 * time.Second // Timeout for individual completion requests
	chatTemperature      = 0.7
	chatTopP             = 1.0
	chatMaxTokens        = 1024
)

var (
	ErrMissingAPIKey = errors.New("missing chat API key")
	ErrEmptyChoice   = errors.New("no response received from the API")
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	client openai.Client
	model  string
}

func NewChatClient(apiKey, baseURL, model string) (*ChatClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("[ChatClient] %w", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: openAIRequestTimeout}),
		option.WithMaxRetries(2),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	slog.Info("[ChatClient] Chat client initialized",
		slog.String("base_url", baseURL),
		slog.String("model", model),
		slog.Duration("timeout", openAIRequestTimeout))

	return &ChatClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends the conversation as-is and returns the first choice.
func (c *ChatClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toCompletionMessages(messages),
		Temperature: openai.Float(chatTemperature),
		TopP:        openai.Float(chatTopP),
		MaxTokens:   openai.Int(chatMaxTokens),
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("[ChatClient] Completion request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("[ChatClient] completion failed: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("[ChatClient] %w", ErrEmptyChoice)
	}

	slog.Info("[ChatClient] Completion request successful",
		slog.Duration("elapsed", time.Since(start)),
		slog.String("finish_reason", string(completion.Choices[0].FinishReason)))
	return completion.Choices[0].Message.Content, nil
}

// Healthy reports whether the endpoint answers a model listing.
func (c *ChatClient) Healthy(ctx context.Context) bool {
	_, err := c.client.Models.List(ctx)
	return err == nil
}

func toCompletionMessages(messages []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.ChatRoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case models.ChatRoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
