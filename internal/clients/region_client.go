package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyRegion = errors.New("empty region")

type RegionFilterRequest struct {
	Region string `json:"region"`
}

type RegionFilterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RegionClient calls the remote region filter service, which must accept a
// region before the dashboard narrows a topic view to it.
type RegionClient struct {
	Client   *http.Client
	endpoint string
	retries  int
	backoff  time.Duration
}

func NewRegionClient(endpoint string, timeout time.Duration) *RegionClient {
	slog.Info("[RegionClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.Duration("timeout", timeout))

	return &RegionClient{
		Client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		retries:  MAX_RETRIES,
		backoff:  INITIAL_BACKOFF,
	}
}

// ApplyRegionFilter asks the service to apply region. A 2xx answer counts as
// success unless its body explicitly says otherwise.
func (rc *RegionClient) ApplyRegionFilter(ctx context.Context, region string) (bool, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return false, fmt.Errorf("[RegionClient] %w", ErrEmptyRegion)
	}

	start := time.Now()
	body, err := rc.postJSON(ctx, RegionFilterRequest{Region: region})
	if err != nil {
		slog.Error("[RegionClient] Region filter request failed",
			slog.String("region", region),
			slog.Duration("elapsed", time.Since(start)))
		return false, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return true, nil
	}

	var result RegionFilterResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Error("[RegionClient] Failed to unmarshal response",
			slog.String("error", err.Error()),
			getPreview(body))
		return false, fmt.Errorf("[RegionClient] failed to unmarshal response: %w", err)
	}

	slog.Info("[RegionClient] Region filter request complete",
		slog.String("region", region),
		slog.Bool("success", result.Success),
		slog.Duration("elapsed", time.Since(start)))
	return result.Success, nil
}

// Healthy reports whether the service answers without a server error.
func (rc *RegionClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.endpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := rc.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// doWithRetry retries transport errors and 5xx responses with doubling
// backoff. Requests are rebuilt per attempt so the body can be replayed.
func (rc *RegionClient) doWithRetry(ctx context.Context, payload []byte) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := rc.backoff

	for attempt := 0; attempt < rc.retries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, rc.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)

		resp, err = rc.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[RegionClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
			if err == nil {
				err = fmt.Errorf("status code %d", resp.StatusCode)
			}
		}
		if attempt == rc.retries-1 {
			break
		}

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

	return nil, err
}

func (rc *RegionClient) postJSON(ctx context.Context, input interface{}) ([]byte, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("[RegionClient] failed to marshal input: %w", err)
	}

	resp, err := rc.doWithRetry(ctx, payload)
	if err != nil {
		slog.Error("[RegionClient] Failed request after retries",
			slog.String("endpoint", rc.endpoint),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("[RegionClient] request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[RegionClient] failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("[RegionClient] service rejected request: status code %d", resp.StatusCode)
	}
	return body, nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
