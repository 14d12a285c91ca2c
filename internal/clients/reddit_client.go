package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/spacesedan/pulseboard/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL   = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL    = "https://oauth.reddit.com"
	REDDIT_MAX_LIMIT  = 100
	REDDIT_USER_AGENT = "pulseboard-scraper/1.0"
)

var ErrRedditUnauthorized = errors.New("reddit rejected credentials")

type RedditClient struct {
	Config  *clientcredentials.Config
	Client  *http.Client
	apiURL  string
	backoff time.Duration
	retries int
	mu      sync.Mutex
}

func NewRedditClient(ctx context.Context, clientID, clientSecret string) *RedditClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     REDDIT_AUTH_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &RedditClient{
		Config:  oauthConf,
		Client:  oauthConf.Client(ctx),
		apiURL:  REDDIT_API_URL,
		backoff: INITIAL_BACKOFF,
		retries: MAX_RETRIES,
	}
}

func (rc *RedditClient) RefreshClient(ctx context.Context) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.Config != nil {
		rc.Client = rc.Config.Client(ctx)
	}
}

func (rc *RedditClient) httpClient() *http.Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.Client
}

// FetchNewPosts returns up to limit of the newest posts in subreddit.
func (rc *RedditClient) FetchNewPosts(ctx context.Context, subreddit string, limit int) ([]models.RedditPost, error) {
	if limit <= 0 || limit > REDDIT_MAX_LIMIT {
		limit = REDDIT_MAX_LIMIT
	}

	parsedUrl, err := url.Parse(fmt.Sprintf("%s/r/%s/new", rc.apiURL, subreddit))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedUrl.Query()
	queryParams.Add("limit", strconv.Itoa(limit))
	queryParams.Add("raw_json", "1")
	parsedUrl.RawQuery = queryParams.Encode()

	body, err := rc.getWithRetry(ctx, parsedUrl.String())
	if err != nil {
		return nil, err
	}

	var listing models.RedditAPIResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to unmarshal listing: %w", err)
	}

	posts := make([]models.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, models.RedditPost{
			Subreddit: d.Subreddit,
			Title:     d.Title,
			Text:      d.Selftext,
			Upvotes:   d.Score,
			URL:       d.URL,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			PostID:    d.ID,
		})
	}

	slog.Info("[RedditClient] Fetched posts",
		slog.String("subreddit", subreddit),
		slog.Int("count", len(posts)))
	return posts, nil
}

// getWithRetry refreshes the token once on 401 and backs off on 429 and 5xx.
func (rc *RedditClient) getWithRetry(ctx context.Context, target string) ([]byte, error) {
	backoff := rc.backoff
	refreshed := false

	for attempt := 1; attempt <= rc.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", REDDIT_USER_AGENT)

		resp, err := rc.httpClient().Do(req)
		if err != nil {
			slog.Warn("[RedditClient] Request failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
				if readErr != nil {
					return nil, fmt.Errorf("[RedditClient] failed to read body: %w", readErr)
				}
				return body, nil
			case resp.StatusCode == http.StatusUnauthorized:
				if refreshed {
					return nil, fmt.Errorf("[RedditClient] %w", ErrRedditUnauthorized)
				}
				slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
				rc.RefreshClient(ctx)
				refreshed = true
				continue
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				slog.Warn("[RedditClient] Retryable status",
					slog.Int("attempt", attempt),
					slog.Int("status", resp.StatusCode))
			default:
				return nil, fmt.Errorf("[RedditClient] unexpected status code %d", resp.StatusCode)
			}
		}

		if attempt == rc.retries {
			break
		}
		slog.Warn("[RedditClient] Retrying request",
			slog.Int("attempt", attempt), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}
	return nil, fmt.Errorf("[RedditClient] Max retries reached request failed")
}
