package jobapi

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	submitFallbackMessage = "Failed to start job"
	exportFallbackMessage = "Export failed"
)

// ErrJobNotFound is returned by Poll when the backend no longer knows the job.
var ErrJobNotFound = errors.New("job not found")

// SubmissionError means the job could not be created.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NetworkError means no response was obtained at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response to a poll.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrJobNotFound && e.StatusCode == http.StatusNotFound
}

// ExportError carries the message the backend gave for a failed export.
type ExportError struct {
	Message string
	Err     error
}

func (e *ExportError) Error() string {
	return e.Message
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// decodeError wraps a response body that could not be understood.
type decodeError struct {
	Op  string
	Err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Op, e.Err)
}

func (e *decodeError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a poll failure should simply be retried on the
// next tick: transport failures, throttling, server errors and garbled bodies.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var networkErr *NetworkError
	if errors.As(err, &networkErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var decodeErr *decodeError
	return errors.As(err, &decodeErr)
}
