// Package chat prepares dashboard conversations for the completion endpoint.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/pulseboard/internal/engine"
	"github.com/spacesedan/pulseboard/internal/models"
)

const (
	MAX_COMPLAINTS   = 5
	MAX_MESSAGES     = 50
	DEFAULT_TOPICS_N = 10
)

var (
	ErrNoMessages      = errors.New("no messages provided")
	ErrInvalidRole     = errors.New("message role must be user or assistant")
	ErrChatUnavailable = errors.New("chat completions are not configured")
)

// Completer produces the assistant reply for a full conversation.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// PostSource supplies the post set the system prompt summarizes.
type PostSource interface {
	Posts() []models.Post
}

type Relay struct {
	completer  Completer
	posts      PostSource
	topicLimit int
}

func NewRelay(completer Completer, posts PostSource, topicLimit int) *Relay {
	if topicLimit <= 0 {
		topicLimit = DEFAULT_TOPICS_N
	}
	return &Relay{completer: completer, posts: posts, topicLimit: topicLimit}
}

// Reply validates the conversation, prepends the system prompt and returns
// the completion.
func (r *Relay) Reply(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	if r.completer == nil {
		return "", ErrChatUnavailable
	}
	if len(messages) > MAX_MESSAGES {
		messages = messages[len(messages)-MAX_MESSAGES:]
	}

	conversation := make([]models.ChatMessage, 0, len(messages)+1)
	conversation = append(conversation, models.ChatMessage{
		Role:    models.ChatRoleSystem,
		Content: r.SystemPrompt(),
	})
	for i, msg := range messages {
		if msg.Role != models.ChatRoleUser && msg.Role != models.ChatRoleAssistant {
			return "", fmt.Errorf("message %d: %w", i, ErrInvalidRole)
		}
		conversation = append(conversation, msg)
	}

	reply, err := r.completer.Complete(ctx, conversation)
	if err != nil {
		slog.Error("[ChatRelay] Completion failed",
			slog.Int("messages", len(conversation)),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("[ChatRelay] completion failed: %w", err)
	}
	return reply, nil
}

type complaint struct {
	ID     int    `json:"id"`
	Region string `json:"region,omitempty"`
	Topic  string `json:"topic"`
	Text   string `json:"text"`
}

type feedbackData struct {
	Satisfaction float64             `json:"satisfaction_percent"`
	TotalPosts   int                 `json:"total_posts"`
	TopTopics    []models.TopicCount `json:"top_topics"`
	Complaints   []complaint         `json:"complaints"`
}

// SystemPrompt describes the current post set to the assistant.
func (r *Relay) SystemPrompt() string {
	var posts []models.Post
	if r.posts != nil {
		posts = r.posts.Posts()
	}

	data := feedbackData{
		Satisfaction: engine.SatisfactionRatio(posts),
		TotalPosts:   len(posts),
		TopTopics:    engine.RankTopics(posts, r.topicLimit),
		Complaints:   recentComplaints(posts, MAX_COMPLAINTS),
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		raw = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("You are a T-Mobile internal assistant designed to help T-Mobile ")
	b.WriteString("use customer feedback to produce actionable insight. ")
	b.WriteString("Use the data below to summarize the common complaints that T-Mobile users are facing.\n\n")
	b.WriteString("CUSTOMER FEEDBACK DATA:\n")
	b.Write(raw)
	b.WriteString("\n\nAfter your initial summary, answer any follow-up questions the user has about the data. ")
	b.WriteString("All responses should be short and concise and be at most 3 sentences.")
	return b.String()
}

// recentComplaints picks the newest negative posts across every topic.
func recentComplaints(posts []models.Post, n int) []complaint {
	negative := make([]models.Post, 0)
	for _, p := range posts {
		if p.Sentiment == models.SentimentNegative {
			negative = append(negative, p)
		}
	}

	engine.SortPosts(negative, engine.SortNewest)

	out := make([]complaint, 0, n)
	for i, p := range negative {
		if i == n {
			break
		}
		out = append(out, complaint{ID: i + 1, Region: p.Region, Topic: p.TopicName, Text: p.Text})
	}
	return out
}
