package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Upstream failure kinds. Every error returned by a ChatClient or by
// Normalize matches at most one of these with errors.Is.
var (
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamServer    = errors.New("upstream server error")
	ErrRequestRejected   = errors.New("request rejected")
	ErrUpstreamUnknown   = errors.New("upstream request failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is a non-2xx response from the upstream model API.
type StatusError struct {
	StatusCode int
	Message    string
}

// NewStatusError builds a StatusError right after a failed upstream call.
func NewStatusError(statusCode int, message string) *StatusError {
	return &StatusError{StatusCode: statusCode, Message: message}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// Kind returns the sentinel matching the status code.
func (e *StatusError) Kind() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrUpstreamServer
	case e.StatusCode == http.StatusBadRequest:
		return ErrRequestRejected
	default:
		return ErrUpstreamUnknown
	}
}

// Unwrap lets errors.Is match the kind sentinel.
func (e *StatusError) Unwrap() error {
	return e.Kind()
}

// Classify returns the failure kind of err, or ErrUpstreamUnknown for
// transport errors and anything unrecognized.
func Classify(err error) error {
	for _, kind := range []error{ErrRateLimited, ErrUpstreamServer, ErrRequestRejected, ErrMalformedResponse} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUpstreamUnknown
}
