// Package common defines shared constants and sentinel errors used across
// client and server layers of vanish. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// View protocol errors. Each one is terminal for the attempt and is
	// surfaced to the user as its own UI state.
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyViewed    = errors.New("already viewed")
	ErrExpired          = errors.New("expired")
	ErrRateLimited      = errors.New("rate limited")

	// ErrTransientStorage is the only retryable view error: the blob store
	// could not produce a reference right now.
	ErrTransientStorage = errors.New("transient storage error")
)

// IsRetryable reports whether err is worth retrying with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}

// Code returns the stable snake_case name of err's sentinel. It is used as
// the audit reason, the metrics outcome and, upper-cased, the wire reason.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrAlreadyViewed):
		return "already_viewed"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransientStorage):
		return "transient_storage"
	case errors.Is(err, ErrorNotFound):
		return "not_found"
	case errors.Is(err, ErrorValidation):
		return "validation"
	case errors.Is(err, ErrorUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return "unauthenticated"
	default:
		return "internal"
	}
}

// FromCode is the inverse of Code. Unknown codes map to ErrorInternal.
func FromCode(code string) error {
	switch code {
	case "ok":
		return nil
	case "permission_denied":
		return ErrPermissionDenied
	case "already_viewed":
		return ErrAlreadyViewed
	case "expired":
		return ErrExpired
	case "rate_limited":
		return ErrRateLimited
	case "transient_storage":
		return ErrTransientStorage
	case "not_found":
		return ErrorNotFound
	case "validation":
		return ErrorValidation
	case "unauthenticated":
		return ErrorUnauthorized
	default:
		return ErrorInternal
	}
}
