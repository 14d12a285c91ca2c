package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	HEALTHCHECK_TIMER   = 15 * time.Second
	HEALTHCHECK_TIMEOUT = 5 * time.Second
)

// CheckFunc reports whether an upstream is reachable.
type CheckFunc func(ctx context.Context) bool

// Monitor runs check immediately and then every interval, storing the
// result in healthy until ctx is done. Only transitions are logged.
func Monitor(ctx context.Context, name string, interval time.Duration, check CheckFunc, healthy *atomic.Bool) {
	if interval <= 0 {
		interval = HEALTHCHECK_TIMER
	}

	probe := func() {
		checkCtx, cancel := context.WithTimeout(ctx, HEALTHCHECK_TIMEOUT)
		defer cancel()

		isHealthy := check(checkCtx)
		if previous := healthy.Swap(isHealthy); previous != isHealthy {
			if isHealthy {
				slog.Info("[HealthCheck] Upstream is healthy", slog.String("upstream", name))
			} else {
				slog.Warn("[HealthCheck] Upstream is unhealthy", slog.String("upstream", name))
			}
		}
	}

	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
