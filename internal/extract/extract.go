// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract is the boundary to the external metadata-extraction
// service: it packages a case's source content into one structured request,
// enforces the response schema, and retries transient failures.
package extract

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/apeiro/ace/pkg/types"
)

// Request carries everything the model needs for one extraction: the PDF
// content (text when enough could be extracted, raw bytes otherwise) plus
// up to three auxiliary text blobs and an optional manual ID override.
type Request struct {
	PDFText string
	PDFData []byte

	APIContent    string
	HTMLContent   string
	ScrapeContent string

	// ManualID is an operator-supplied identifier override.
	ManualID string
}

// HasPDF reports whether the request carries any PDF content at all.
func (r Request) HasPDF() bool {
	return r.PDFText != "" || len(r.PDFData) > 0
}

// Backend performs a single extraction attempt. Implementations map API
// failures onto the package error kinds; tests supply mocks.
type Backend interface {
	Extract(ctx context.Context, req Request) (*types.ExtractedMetadata, error)
}

// Backoff timing, package-level vars so tests avoid real sleeps.
var (
	// retryBaseDelay is the first rate-limit backoff; it doubles per attempt.
	retryBaseDelay = 5 * time.Second

	// retryJitterMax is the upper bound of the random jitter added to each
	// rate-limit backoff.
	retryJitterMax = 2 * time.Second

	// emptyRetryDelay is the fixed pause before the single empty-response retry.
	emptyRetryDelay = 2 * time.Second
)

// Invoker wraps a Backend with the retry policy: rate limits retried with
// exponential backoff and jitter up to MaxAttempts, EmptyResponse and
// SchemaViolation retried exactly once, safety rejections and everything
// else surfaced immediately.
type Invoker struct {
	Backend     Backend
	MaxAttempts int
	Logger      zerolog.Logger
}

// NewInvoker returns an Invoker that gives each request up to 3 attempts.
func NewInvoker(backend Backend, logger zerolog.Logger) *Invoker {
	return &Invoker{Backend: backend, MaxAttempts: 3, Logger: logger}
}

// Invoke runs one extraction to completion or terminal failure.
func (inv *Invoker) Invoke(ctx context.Context, req Request) (*types.ExtractedMetadata, error) {
	if !req.HasPDF() {
		return nil, ErrSourceUnavailable
	}

	maxAttempts := inv.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	emptyRetried := false
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		meta, err := inv.Backend.Extract(ctx, req)
		if err == nil {
			return meta, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, ErrSafetyRejected):
			// Retrying will not help.
			return nil, err

		case errors.Is(err, ErrRateLimited):
			if attempt == maxAttempts {
				return nil, err
			}
			wait := rateLimitBackoff(attempt)
			inv.Logger.Warn().
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Dur("backoff", wait).
				Msg("rate limited, backing off")
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}

		case retryOnce(err):
			if emptyRetried || attempt == maxAttempts {
				return nil, err
			}
			emptyRetried = true
			inv.Logger.Warn().Err(err).Msg("empty or malformed response, retrying once")
			if err := sleep(ctx, emptyRetryDelay); err != nil {
				return nil, err
			}

		default:
			return nil, err
		}
	}

	return nil, lastErr
}

// rateLimitBackoff doubles the base delay per attempt and adds jitter so
// parallel workers do not retry in lockstep.
func rateLimitBackoff(attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBaseDelay
	if retryJitterMax > 0 {
		backoff += time.Duration(rand.Int63n(int64(retryJitterMax)))
	}
	return backoff
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
