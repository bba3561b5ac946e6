// Package limiter applies the waitlist's per-client limit on top of a bucket
// store, falling back to process-local buckets while the shared store fails.
package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pocketly/internal/platform/config"
	"pocketly/internal/ratelimit/metrics"
	"pocketly/internal/ratelimit/models"
	"pocketly/pkg/platform/circuit"
	"pocketly/pkg/platform/privacy"
)

// BucketStore is a sliding-window counter.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type sweeper interface {
	Sweep() int
}

type Limiter struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	secret   []byte
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Limiter)

// WithFallback answers checks from store while the primary store is failing.
func WithFallback(store BucketStore) Option {
	return func(l *Limiter) {
		l.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Limiter) {
		l.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func New(primary BucketStore, cfg config.RateLimitConfig, opts ...Option) *Limiter {
	l := &Limiter{
		primary: primary,
		breaker: circuit.New("ratelimit-buckets"),
		limit:   cfg.Requests,
		window:  cfg.Window,
		secret:  []byte(cfg.KeySecret),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// KeyFor returns the bucket key of a client IP. The IP itself is never stored.
func (l *Limiter) KeyFor(ip string) string {
	return models.NewKey("waitlist", "ip", privacy.HashIdentifier(l.secret, ip))
}

// CheckIP counts one request from ip against the limit.
func (l *Limiter) CheckIP(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	key := l.KeyFor(ip)

	result, err := l.primary.Allow(ctx, key, l.limit, l.window)
	if err == nil {
		usePrimary, change := l.breaker.RecordSuccess()
		if change.Closed {
			l.metrics.SetDegraded(false)
			l.logger.InfoContext(ctx, "rate limit store recovered", "breaker", l.breaker.Name())
		}
		if usePrimary || l.fallback == nil {
			return result, nil
		}
		return l.checkFallback(ctx, key)
	}

	useFallback, change := l.breaker.RecordFailure()
	if change.Opened {
		l.metrics.SetDegraded(true)
		l.logger.WarnContext(ctx, "rate limit store failing, using in-memory buckets",
			"breaker", l.breaker.Name(),
			"error", err,
		)
	}
	if useFallback && l.fallback != nil {
		return l.checkFallback(ctx, key)
	}
	return nil, fmt.Errorf("check rate limit: %w", err)
}

func (l *Limiter) checkFallback(ctx context.Context, key string) (*models.RateLimitResult, error) {
	result, err := l.fallback.Allow(ctx, key, l.limit, l.window)
	if err != nil {
		return nil, fmt.Errorf("check fallback rate limit: %w", err)
	}
	result.Degraded = true
	return result, nil
}

// RunSweeper drops expired in-memory buckets every interval until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed := l.Sweep()
			if removed > 0 {
				l.logger.DebugContext(ctx, "rate limit buckets swept", "removed", removed)
			}
		}
	}
}

// Sweep runs one cleanup pass over every in-memory store.
func (l *Limiter) Sweep() int {
	removed := 0
	for _, store := range []BucketStore{l.primary, l.fallback} {
		if sw, ok := store.(sweeper); ok {
			removed += sw.Sweep()
		}
	}
	l.metrics.AddSwept(removed)
	return removed
}
