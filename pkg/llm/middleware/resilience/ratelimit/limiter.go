// Package ratelimit bounds token throughput and in-flight requests per provider.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config defines limits for one model. Zero values mean unlimited.
type Config struct {
	TokensPerMinute int `json:"tokens_per_minute"`
	MaxConcurrency  int `json:"max_concurrency"`
}

// Limiter combines a token bucket refilled at TokensPerMinute with a
// semaphore capping concurrent requests.
type Limiter struct {
	tokens *rate.Limiter
	slots  *semaphore.Weighted
	burst  int
}

// New creates a limiter from cfg.
func New(cfg Config) *Limiter {
	l := &Limiter{}
	if cfg.TokensPerMinute > 0 {
		l.burst = cfg.TokensPerMinute
		l.tokens = rate.NewLimiter(rate.Limit(float64(cfg.TokensPerMinute)/60.0), cfg.TokensPerMinute)
	}
	if cfg.MaxConcurrency > 0 {
		l.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}
	return l
}

// Acquire blocks until a request slot and n tokens are available. The
// returned release function must be called once the request finishes.
// Requests larger than the bucket are clamped to the bucket size so they
// can still run.
func (l *Limiter) Acquire(ctx context.Context, n int) (release func(), wait time.Duration, err error) {
	start := time.Now()
	release = func() {}

	if l.slots != nil {
		if err := l.slots.Acquire(ctx, 1); err != nil {
			return nil, time.Since(start), fmt.Errorf("waiting for request slot: %w", err)
		}
		release = func() { l.slots.Release(1) }
	}

	if l.tokens != nil && n > 0 {
		if n > l.burst {
			n = l.burst
		}
		if err := l.tokens.WaitN(ctx, n); err != nil {
			release()
			return nil, time.Since(start), fmt.Errorf("waiting for %d tokens: %w", n, err)
		}
	}

	return release, time.Since(start), nil
}
