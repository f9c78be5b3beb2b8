// Package apperr defines the error taxonomy shared by services and handlers.
// Services return these (possibly wrapped with %w); the HTTP layer maps them
// to status codes with HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindAuthentication    Kind = "authentication"
	KindConflict          Kind = "conflict"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindMissingCredential Kind = "missing_credential"
	KindPersistence       Kind = "persistence"
)

// Error is a classified application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Authentication(msg string) error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func QuotaExceeded(used, limit int64) error {
	return &Error{Kind: KindQuotaExceeded, Msg: fmt.Sprintf("daily generation limit reached (%d/%d)", used, limit)}
}

// MissingCredential reports a required secret that was not configured.
func MissingCredential(name string) error {
	return &Error{Kind: KindMissingCredential, Msg: fmt.Sprintf("missing credential: %s", name)}
}

// Persistence wraps a storage failure with the operation that caused it.
func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Msg: op, Err: err}
}

// ProviderError is returned when the external generation provider answered
// with a non-success status or could not be reached. StatusCode is 0 for
// transport failures and timeouts.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s unavailable", e.Provider)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Unavailable reports whether the provider could not be reached at all.
func (e *ProviderError) Unavailable() bool { return e.StatusCode == 0 }

// Retryable reports whether repeating the call may succeed.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
