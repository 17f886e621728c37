package upstream

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimitExhausted is returned in fail-fast mode when upstream has
// reported zero remaining quota.
var ErrRateLimitExhausted = errors.New("rate limit exhausted before next request")

// quotaGate blocks obviously wasted calls when the last captured
// telemetry says the quota is spent. It is advisory: upstream stays the
// enforcement authority, and a race past the gate is acceptable.
type quotaGate struct {
	remaining func() string             // last captured remaining, "" if never seen
	probe     func(context.Context) error // refreshes telemetry
	wait      bool
	interval  time.Duration
	log       *zap.Logger
}

// ensure fails open when telemetry is absent or non-numeric. On zero it
// either polls until quota recovers or fails fast, per configuration.
func (g *quotaGate) ensure(ctx context.Context) error {
	remaining, ok := parseRemaining(g.remaining())
	if !ok || remaining > 0 {
		return nil
	}
	if !g.wait {
		return ErrRateLimitExhausted
	}

	g.log.Info("rate limit exhausted, waiting for quota", zap.Duration("interval", g.interval))
	for {
		if err := g.probe(ctx); err != nil {
			g.log.Warn("rate limit probe failed", zap.Error(err))
		}
		if remaining, ok := parseRemaining(g.remaining()); ok && remaining > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.interval):
		}
	}
}

func parseRemaining(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
