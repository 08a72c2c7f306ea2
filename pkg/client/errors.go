package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRequestFailed is returned when a logical call exhausts its
	// retry budget. It carries the method and action in the message; the
	// underlying transport error is logged, not wrapped.
	ErrRequestFailed = errors.New("request failed")

	// ErrBatchFailed is returned when any chunk of a composite batch
	// fails; the whole logical operation fails with it.
	ErrBatchFailed = errors.New("batch failed")

	// ErrContextCancelled is returned when the context is cancelled
	// between retry attempts.
	ErrContextCancelled = errors.New("context cancelled")
)

// APIError represents a non-2xx service response observed by a single
// attempt. It never escapes the client directly: after retry exhaustion
// callers see ErrRequestFailed instead.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("salesforce %s error (status %d): %s", e.Class, e.StatusCode, e.Message)
}

// classifyStatus categorizes an HTTP status code for observability.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassNetwork
	}
}

// classify categorizes an attempt error for logging and metrics.
func classify(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ErrorClassNetwork
}
