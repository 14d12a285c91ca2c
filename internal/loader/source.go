package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spacesedan/pulseboard/internal/models"
)

const (
	FETCH_MAX_RETRIES     = 4
	FETCH_INITIAL_BACKOFF = 500 * time.Millisecond
	FETCH_MAX_BACKOFF     = 8 * time.Second
	FETCH_USER_AGENT      = "pulseboard-loader/1.0 (+https://github.com/spacesedan/pulseboard)"
)

var ErrUnsupportedSource = errors.New("unsupported data source")

// Source produces the raw records of one tabular export.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.RawRecord, error)
}

// S3GetObjectAPI is the part of the S3 client the loader needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewSource picks a source for uri: s3://bucket/key, http(s)://..., or a
// local path (optionally file://). s3Client may be nil when no S3 URIs are
// used.
func NewSource(uri string, s3Client S3GetObjectAPI) (Source, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("[Loader] invalid source %q: %w", uri, err)
	}

	switch u.Scheme {
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("[Loader] %w: %q needs a bucket and key", ErrUnsupportedSource, uri)
		}
		if s3Client == nil {
			return nil, fmt.Errorf("[Loader] %w: no S3 client configured for %q", ErrUnsupportedSource, uri)
		}
		return &S3Source{Client: s3Client, Bucket: u.Host, Key: key}, nil
	case "http", "https":
		return &HTTPSource{URL: uri, Client: &http.Client{Timeout: 30 * time.Second}}, nil
	case "file":
		return &FileSource{Path: u.Path}, nil
	case "":
		return &FileSource{Path: uri}, nil
	default:
		return nil, fmt.Errorf("[Loader] %w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
}

type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("[Loader] failed to open %s: %w", s.Path, err)
	}
	defer f.Close()

	return Decode(f)
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(body))
}

// fetch retries transport errors and 5xx responses with doubling backoff.
// 4xx responses fail immediately.
func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	backoff := FETCH_INITIAL_BACKOFF
	var lastErr error

	for attempt := 0; attempt < FETCH_MAX_RETRIES; attempt++ {
		if attempt > 0 {
			slog.Warn("[Loader] Fetch failed, will retry",
				slog.String("url", s.URL),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > FETCH_MAX_BACKOFF {
				backoff = FETCH_MAX_BACKOFF
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("[Loader] failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", FETCH_USER_AGENT)
		req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

		resp, err := s.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("[Loader] fetching %s: status code %d", s.URL, resp.StatusCode)
		case readErr != nil:
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("[Loader] fetching %s failed after %d attempts: %w", s.URL, FETCH_MAX_RETRIES, lastErr)
}

type S3Source struct {
	Client S3GetObjectAPI
	Bucket string
	Key    string
}

func (s *S3Source) Name() string { return "s3://" + s.Bucket + "/" + s.Key }

func (s *S3Source) Load(ctx context.Context) ([]models.RawRecord, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("[Loader] failed to get %s: %w", s.Name(), err)
	}
	defer out.Body.Close()

	return Decode(out.Body)
}
