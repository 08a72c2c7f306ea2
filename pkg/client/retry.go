package client

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	forceRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "force_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	forceRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "force_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// withRetry runs one logical call: the initial attempt plus up to
// MaxRetries immediate resubmissions. There is no backoff; attempts are
// strictly sequential. Every failed attempt increments the error counter;
// on exhaustion the underlying error is logged and the caller receives
// ErrRequestFailed carrying only the method and action.
func (c *Client) withRetry(ctx context.Context, method, action, reqID string, fn func() (*Response, error)) (*Response, error) {
	attempts := c.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		resp, err := fn()
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("method", method).
					Str("action", action).
					Str("request_id", reqID).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return resp, nil
		}

		lastErr = err
		c.errors++
		class := classify(err)
		forceErrorsTotal.WithLabelValues(string(class)).Inc()

		if attempt < attempts {
			forceRetriesTotal.WithLabelValues(string(class)).Inc()
			c.logger.Debug().
				Err(err).
				Str("method", method).
				Str("action", action).
				Str("request_id", reqID).
				Int("attempt", attempt).
				Msg("Attempt failed, retrying")
		}
	}

	class := classify(lastErr)
	forceRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
	c.logger.Error().
		Err(lastErr).
		Str("method", method).
		Str("action", action).
		Str("request_id", reqID).
		Int("attempts", attempts).
		Str("error_class", string(class)).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w: %s %s", ErrRequestFailed, method, action)
}
