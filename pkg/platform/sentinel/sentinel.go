package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about the backing store, not validation failures:
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrPermissionDenied: the store's access policy rejected the write
// - ErrNotConfigured: no store credentials were provided
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrConflict         = errors.New("conflict")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotConfigured    = errors.New("not configured")
	ErrUnavailable      = errors.New("unavailable")
)
