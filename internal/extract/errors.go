// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
	"net/http"
)

// The extraction boundary maps every failure into one of these kinds; the
// scheduler converts any of them into an Error transition, so nothing from
// the boundary can stall the queue.
var (
	// ErrSourceUnavailable: the required PDF input is missing. The
	// boundary is never called.
	ErrSourceUnavailable = errors.New("required source file unavailable")

	// ErrRateLimited: the model API returned a rate-limit response.
	// Retried with exponential backoff.
	ErrRateLimited = errors.New("model API rate limited")

	// ErrEmptyResponse: the model returned no usable body. Retried once.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrSafetyRejected: the model refused to process the content.
	// Never retried, retrying will not help.
	ErrSafetyRejected = errors.New("model rejected content on safety grounds")

	// ErrSchemaViolation: the response did not match the required shape.
	// Treated like an empty response: retried once.
	ErrSchemaViolation = errors.New("response violates the extraction schema")
)

// APIError carries the HTTP-level detail of a model API failure.
type APIError struct {
	// StatusCode is the HTTP status returned by the API. Zero when no
	// HTTP response was received.
	StatusCode int

	// Message is the error text from the API body, when present.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("model API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("model API error (status %d)", e.StatusCode)
}

// Unwrap lets errors.Is classify rate-limit responses.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}

// retryOnce reports whether the error is the retry-once kind: an empty or
// malformed response, distinct from the rate-limit path.
func retryOnce(err error) bool {
	return errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrSchemaViolation)
}
