package store

//go:generate mockgen -destination=mocks/mocks.go -package=mocks pocketly/internal/waitlist/store Store

import (
	"context"
	"errors"
	"fmt"

	"pocketly/internal/waitlist/models"
	"pocketly/pkg/platform/sentinel"
)

// Store inserts one subscriber and returns the stored row.
type Store interface {
	Insert(ctx context.Context, email string) (*models.Subscriber, error)
}

// Backend is the subscriber store as seen by the service: either Configured
// with a Store or Unconfigured. Callers switch on the concrete type.
type Backend interface {
	backend()
}

// Configured carries a usable store.
type Configured struct {
	Store Store
}

// Unconfigured records why no store is available.
type Unconfigured struct {
	Reason string
}

func (Configured) backend()   {}
func (Unconfigured) backend() {}

// PostgreSQL SQLSTATE codes the service distinguishes. Other stores must map
// their own unique-violation and permission failures onto these.
const (
	CodeUniqueViolation       = "23505"
	CodeInsufficientPrivilege = "42501"
)

// Error is a store failure with the provider's code and raw message preserved.
// Kind is a sentinel when the code is one the service classifies.
type Error struct {
	Code    string
	Message string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store error %s: %s", e.Code, e.Message)
	}
	return "store error: " + e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewError classifies a provider code into an Error.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Kind:    kindFor(code),
		Err:     cause,
	}
}

func kindFor(code string) error {
	switch code {
	case CodeUniqueViolation:
		return sentinel.ErrConflict
	case CodeInsufficientPrivilege:
		return sentinel.ErrPermissionDenied
	default:
		return nil
	}
}

// RawMessage returns the provider's own message for err, or err's text when it
// is not a store Error.
func RawMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
