package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"pocketly/internal/i18n"
	"pocketly/internal/preferences"
	"pocketly/internal/ratelimit/metrics"
	"pocketly/internal/ratelimit/models"
	"pocketly/pkg/platform/httputil"
	"pocketly/pkg/platform/middleware/metadata"
	"pocketly/pkg/platform/privacy"
	"pocketly/pkg/requestcontext"
)

// StatusHeader is set to "degraded" while checks are answered by the fallback store.
const StatusHeader = "X-RateLimit-Status"

type RateLimiter interface {
	CheckIP(ctx context.Context, ip string) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits requests per client IP. Limiter errors let the request through.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := metadata.GetClientIP(ctx)

		result, err := m.limiter.CheckIP(ctx, ip)
		if err != nil {
			m.metrics.IncrementDecision(metrics.DecisionError)
			m.logger.ErrorContext(ctx, "failed to check IP rate limit",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
				"ip_prefix", privacy.AnonymizeIP(ip),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)

		if !result.Allowed {
			m.metrics.IncrementDecision(metrics.DecisionRejected)
			m.logger.InfoContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"ip_prefix", privacy.AnonymizeIP(ip),
				"retry_after", result.RetryAfter,
			)
			writeRateLimitExceeded(w, result, preferences.Language(ctx))
			return
		}

		m.metrics.IncrementDecision(metrics.DecisionAllowed)
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set(StatusHeader, "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult, lang i18n.Lang) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      i18n.T(lang, i18n.RateLimited),
		RetryAfter: result.RetryAfter,
	})
}
