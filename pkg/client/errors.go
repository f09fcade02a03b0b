package client

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork      = errors.New("weather provider unreachable")
	ErrUnauthorized = errors.New("weather provider rejected the api key")
	ErrNotFound     = errors.New("location not found")
	ErrRateLimited  = errors.New("weather provider rate limit exceeded")
	ErrMalformed    = errors.New("malformed weather provider response")
	ErrUpstream     = errors.New("weather provider error")
	ErrUnavailable  = errors.New("weather provider temporarily unavailable")
)

// APIError wraps one of the sentinel kinds above with request details.
type APIError struct {
	Kind       error
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Endpoint, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short machine readable name for err's kind.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}

func kindForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status == 429:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}
