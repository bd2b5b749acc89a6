package util

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for responses that are not usable pages.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Code, e.URL)
}

// ErrNotFound indicates a missing resource (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 403), usually a
// challenge page in front of the site.
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the site rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ClassifyStatus wraps a StatusError into one of the typed errors above.
// Other errors are returned unchanged.
func ClassifyStatus(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code {
	case http.StatusNotFound:
		return ErrNotFound{Err: err}
	case http.StatusForbidden:
		return ErrForbidden{Err: err}
	case http.StatusTooManyRequests:
		return ErrRateLimited{Err: err}
	}

	return err
}

// ErrorLabel returns a short category for err, used in logs and metrics.
func ErrorLabel(err error) string {
	if err == nil {
		return "none"
	}

	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}

	return "other"
}
