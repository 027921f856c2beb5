package store

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError describes a non-2xx response from a store.
type RequestError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("store: %d %s", e.Status, e.StatusText)
	}
	return fmt.Sprintf("store: %d %s - %s", e.Status, e.StatusText, e.Body)
}

// FailureKind buckets request failures for user-facing reporting.
type FailureKind int

const (
	FailureNetwork FailureKind = iota
	FailureUnauthorized
	FailureForbidden
	FailureNotFound
	FailureServer
	FailureOther
)

// Classify maps a request error onto a FailureKind. Anything that is not a
// *RequestError is treated as a network-level failure.
func Classify(err error) FailureKind {
	var requestErr *RequestError
	if !errors.As(err, &requestErr) {
		return FailureNetwork
	}
	switch {
	case requestErr.Status == http.StatusUnauthorized:
		return FailureUnauthorized
	case requestErr.Status == http.StatusForbidden:
		return FailureForbidden
	case requestErr.Status == http.StatusNotFound:
		return FailureNotFound
	case requestErr.Status >= 500:
		return FailureServer
	default:
		return FailureOther
	}
}

// Describe renders a failure as a short human-readable cause.
func Describe(err error) string {
	switch Classify(err) {
	case FailureUnauthorized:
		return "invalid API key"
	case FailureForbidden:
		return "permission denied"
	case FailureNotFound:
		return "database or table not found"
	case FailureServer:
		return "server error"
	case FailureNetwork:
		return "network error"
	default:
		return err.Error()
	}
}
