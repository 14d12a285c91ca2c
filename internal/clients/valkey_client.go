package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/pulseboard/internal/snapshot"
	"github.com/valkey-io/valkey-go"
)

const VALKEY_SNAPSHOT_KEY = "dashboard:snapshot"

type ValkeyOptions struct {
	Address  string
	Password string
	TLS      bool
	TTL      time.Duration
}

// ValkeyClient caches the last installed snapshot so a restarted dashboard
// has data before its first successful fetch.
type ValkeyClient struct {
	Client valkey.Client
	opts   ValkeyOptions
	mu     sync.Mutex
}

func NewValkeyClient(opts ValkeyOptions) (*ValkeyClient, error) {
	client, err := connectValkey(opts)
	if err != nil {
		return nil, err
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", opts.Address))
	return &ValkeyClient{Client: client, opts: opts}, nil
}

func connectValkey(opts ValkeyOptions) (valkey.Client, error) {
	clientOpts := valkey.ClientOption{
		InitAddress: []string{
			opts.Address,
		},
		Password:         opts.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if opts.TLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey(vc.opts)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}

	vc.Client.Close()
	vc.Client = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func (vc *ValkeyClient) Close() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.Client.Close()
}

func (vc *ValkeyClient) client() valkey.Client {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.Client
}

// SaveSnapshot stores snap under VALKEY_SNAPSHOT_KEY with the configured TTL.
func (vc *ValkeyClient) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("[ValkeyClient] failed to marshal snapshot: %w", err)
	}

	client := vc.client()
	completed := []valkey.Completed{
		client.B().Set().Key(VALKEY_SNAPSHOT_KEY).Value(string(payload)).Build(),
		client.B().Expire().Key(VALKEY_SNAPSHOT_KEY).Seconds(int64(vc.opts.TTL.Seconds())).Build(),
	}

	for _, res := range vc.DoMultiWithRetry(ctx, completed, 3) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("[ValkeyClient] failed to save snapshot: %w", err)
		}
	}

	slog.Info("[ValkeyClient] Cached snapshot",
		slog.String("snapshot_id", snap.ID),
		slog.Int("bytes", len(payload)))
	return nil
}

// LoadSnapshot returns the cached snapshot, or nil when nothing is cached.
func (vc *ValkeyClient) LoadSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	client := vc.client()
	res := vc.DoWithRetry(ctx, client.B().Get().Key(VALKEY_SNAPSHOT_KEY).Build(), 3)

	raw, err := res.ToString()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return nil, fmt.Errorf("[ValkeyClient] failed to load snapshot: %w", err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, completed []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.client().DoMulti(ctx, completed...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				if isConnectionError(r.Error()) {
					vc.recreateClient()
				}
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(time.Millisecond * 250)
	}

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.client().Do(ctx, completed)
		if err := result.Error(); err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
