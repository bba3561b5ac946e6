package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pocketly/internal/waitlist/metrics"
	"pocketly/internal/waitlist/models"
	"pocketly/internal/waitlist/store"
	dErrors "pocketly/pkg/domain-errors"
	"pocketly/pkg/email"
	"pocketly/pkg/platform/sentinel"
	"pocketly/pkg/platform/tracing"
	"pocketly/pkg/requestcontext"
)

// RemediationScript restores the row-level security policies that let the
// application role insert subscribers.
const RemediationScript = "scripts/newsletter-subscribers-rls.sql"

// Service validates and records waitlist subscriptions.
type Service struct {
	backend store.Backend
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(backend store.Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode reports where successful subscriptions end up.
func (s *Service) Mode() models.Mode {
	if _, ok := s.backend.(store.Configured); ok {
		return models.ModeStored
	}
	return models.ModeDevelopment
}

// Subscribe validates email and inserts it exactly once when a store is
// configured. Without a store it succeeds in development mode and writes nothing.
func (s *Service) Subscribe(ctx context.Context, address string) (*models.SubscribeResult, error) {
	ctx, span := tracing.Start(ctx, "waitlist.Subscribe")
	defer span.End()

	if !email.IsValid(address) {
		s.metrics.IncrementOutcome(metrics.OutcomeInvalid)
		return nil, dErrors.New(dErrors.CodeValidation, "please enter a valid email")
	}
	span.SetAttributes(attribute.String("waitlist.email_domain", domainOf(address)))

	switch b := s.backend.(type) {
	case store.Unconfigured:
		span.SetAttributes(attribute.String("waitlist.mode", string(models.ModeDevelopment)))
		s.metrics.IncrementOutcome(metrics.OutcomeDevelopment)
		s.logger.InfoContext(ctx, "subscriber store not configured, skipping insert",
			"request_id", requestcontext.RequestID(ctx),
			"reason", b.Reason,
		)
		return &models.SubscribeResult{Mode: models.ModeDevelopment, Email: address}, nil

	case store.Configured:
		span.SetAttributes(attribute.String("waitlist.mode", string(models.ModeStored)))
		start := time.Now()
		sub, err := b.Store.Insert(ctx, address)
		s.metrics.ObserveInsert(start)
		if err != nil {
			tracing.Fail(span, err)
			return nil, s.translateStoreErr(ctx, err)
		}
		s.metrics.IncrementOutcome(metrics.OutcomeStored)
		s.logger.InfoContext(ctx, "subscriber stored",
			"request_id", requestcontext.RequestID(ctx),
			"subscriber_id", sub.ID.String(),
			"email_domain", domainOf(address),
		)
		return &models.SubscribeResult{Mode: models.ModeStored, Email: sub.Email, Subscriber: sub}, nil

	default:
		err := dErrors.New(dErrors.CodeInternal, "unknown subscriber store backend")
		tracing.Fail(span, err)
		return nil, err
	}
}

func (s *Service) translateStoreErr(ctx context.Context, err error) error {
	requestID := requestcontext.RequestID(ctx)
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncrementOutcome(metrics.OutcomeDuplicate)
		return dErrors.Wrap(err, dErrors.CodeConflict, "this email is already registered")

	case errors.Is(err, sentinel.ErrPermissionDenied):
		s.metrics.IncrementOutcome(metrics.OutcomeMisconfigured)
		s.logger.ErrorContext(ctx, "subscriber insert rejected by access policy",
			"request_id", requestID,
			"error", err,
			"remediation", RemediationScript,
		)
		return dErrors.Wrap(err, dErrors.CodeMisconfigured, "subscriber store security policy is missing").
			WithDetails(RemediationScript)

	default:
		s.metrics.IncrementOutcome(metrics.OutcomeFailed)
		s.logger.ErrorContext(ctx, "subscriber insert failed",
			"request_id", requestID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeStoreFailure, "failed to store subscriber").
			WithDetails(store.RawMessage(err))
	}
}

func domainOf(address string) string {
	_, domain, _ := strings.Cut(address, "@")
	return strings.ToLower(domain)
}
