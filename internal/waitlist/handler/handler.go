package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"pocketly/internal/i18n"
	"pocketly/internal/platform/metrics"
	"pocketly/internal/platform/middleware"
	"pocketly/internal/preferences"
	"pocketly/internal/waitlist/models"
	"pocketly/internal/waitlist/service"
	dErrors "pocketly/pkg/domain-errors"
	"pocketly/pkg/platform/httputil"
	"pocketly/pkg/platform/middleware/metadata"
	"pocketly/pkg/platform/middleware/requesttime"
)

const maxBodyBytes = 4 << 10

// Service defines the subscription operation the handler depends on.
type Service interface {
	Subscribe(ctx context.Context, email string) (*models.SubscribeResult, error)
}

// Handler serves POST /api/waitlist.
type Handler struct {
	logger      *slog.Logger
	service     Service
	metrics     *metrics.Metrics
	timeout     time.Duration
	middlewares []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithTimeout bounds each request. The default is 15 seconds.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

// WithMiddleware appends route-specific middleware, such as the rate limiter,
// after the shared chain.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.middlewares = append(h.middlewares, mw...)
	}
}

// New creates a waitlist Handler.
func New(svc Service, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		service: svc,
		metrics: m,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the waitlist route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger, h.metrics))
		r.Use(middleware.RequestID)
		r.Use(requesttime.Middleware)
		r.Use(metadata.ClientMetadata)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(h.timeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(preferences.Middleware)
		r.Use(h.middlewares...)
		r.Post("/api/waitlist", h.HandleSubscribe)
	})
}

// HandleSubscribe validates the body, records the subscription and answers in
// the caller's language. Every failure, panics included, ends in a JSON body.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := preferences.Language(ctx)
	defer h.recoverPanic(w, r, lang)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, lang, errMalformed)
		return
	}

	req, err := decodeSubscribeRequest(body)
	if err != nil {
		h.writeError(w, lang, err)
		return
	}

	result, err := h.service.Subscribe(ctx, req.Email)
	if err != nil {
		h.logger.InfoContext(ctx, "subscription rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		h.writeError(w, lang, err)
		return
	}

	switch result.Mode {
	case models.ModeDevelopment:
		httputil.WriteJSON(w, http.StatusOK, models.SubscribeResponse{
			Message: i18n.T(lang, i18n.SubscribedDevelopment),
			Data:    models.DevelopmentData{Email: result.Email},
			Mode:    models.ModeDevelopment,
		})
	default:
		httputil.WriteJSON(w, http.StatusOK, models.SubscribeResponse{
			Message: i18n.T(lang, i18n.Subscribed),
			Data:    []models.Subscriber{*result.Subscriber},
		})
	}
}

// writeError localizes a domain error and writes it.
func (h *Handler) writeError(w http.ResponseWriter, lang i18n.Lang, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		de = dErrors.Wrap(err, dErrors.CodeInternal, err.Error())
	}

	var message, details string
	switch de.Code {
	case dErrors.CodeBadRequest:
		message = i18n.T(lang, i18n.InvalidRequestFormat)
	case dErrors.CodeValidation:
		message = i18n.T(lang, i18n.InvalidEmail)
	case dErrors.CodeConflict:
		message = i18n.T(lang, i18n.AlreadySubscribed)
	case dErrors.CodeMisconfigured:
		message = i18n.T(lang, i18n.StoreMisconfigured, service.RemediationScript)
		details = i18n.T(lang, i18n.StoreMisconfiguredDetail, service.RemediationScript)
	case dErrors.CodeStoreFailure:
		message = i18n.T(lang, i18n.GenericFailure)
		details = de.Details
		if details == "" {
			details = i18n.T(lang, i18n.UnknownError)
		}
	default:
		message = i18n.T(lang, i18n.ServerError)
		details = de.Message
	}
	httputil.WriteError(w, dErrors.New(de.Code, message).WithDetails(details))
}

func (h *Handler) recoverPanic(w http.ResponseWriter, r *http.Request, lang i18n.Lang) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		panic(rec)
	}
	ctx := r.Context()
	h.metrics.IncrementPanics()
	h.logger.ErrorContext(ctx, "panic in waitlist handler",
		"request_id", middleware.GetRequestID(ctx),
		"panic", rec,
		"stack", string(debug.Stack()),
	)
	details := panicMessage(rec)
	if details == "" {
		details = i18n.T(lang, i18n.UnknownError)
	}
	httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{
		Error:   i18n.T(lang, i18n.ServerError),
		Details: details,
	})
}

func panicMessage(rec any) string {
	if err, ok := rec.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(rec)
}
