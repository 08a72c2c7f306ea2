package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// BatchChunkSize is the server-imposed limit on composite-batch
// sub-requests per call.
const BatchChunkSize = 25

// SubRequest is one composite-batch sub-request. URL is an action path
// relative to the REST root; the client versions it on submission.
type SubRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// NewSubRequest wraps a bare action path as a GET sub-request.
func NewSubRequest(action string) SubRequest {
	return SubRequest{Method: http.MethodGet, URL: action}
}

// BatchResult is one sub-response embedded in a composite-batch reply.
type BatchResult struct {
	StatusCode int             `json:"statusCode"`
	Result     json.RawMessage `json:"result"`
}

// BatchResponse is the aggregate of all chunk responses for one logical
// batch operation, in submission order. Its length equals the sum of the
// per-chunk response lengths.
type BatchResponse struct {
	HasErrors bool          `json:"hasErrors"`
	Results   []BatchResult `json:"results"`
}

type batchPayload struct {
	BatchRequests []SubRequest `json:"batchRequests"`
}

// Batch submits sub-requests through the composite-batch endpoint,
// splitting them into chunks of at most BatchChunkSize. Chunks are issued
// strictly sequentially: chunk N must complete before chunk N+1 starts,
// and any chunk failure fails the whole operation with no partial result.
//
// The whole multi-chunk operation is accounted as one logical request:
// the counter is decremented before each chunk issue (the executor
// re-increments it) and incremented once after the loop completes.
func (c *Client) Batch(ctx context.Context, subs []SubRequest, params url.Values) (*BatchResponse, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no sub-requests", ErrBatchFailed)
	}

	aggregate := &BatchResponse{}
	for start := 0; start < len(subs); start += BatchChunkSize {
		end := min(start+BatchChunkSize, len(subs))

		chunk := make([]SubRequest, end-start)
		for i, sub := range subs[start:end] {
			if sub.Method == "" {
				sub.Method = http.MethodGet
			}
			sub.URL = c.versionedPath(sub.URL)
			chunk[i] = sub
		}

		c.requests--
		resp, err := c.Do(ctx, http.MethodPost, "composite/batch/", batchPayload{BatchRequests: chunk}, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBatchFailed, err)
		}

		var page BatchResponse
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode chunk response: %v", ErrBatchFailed, err)
		}

		aggregate.HasErrors = aggregate.HasErrors || page.HasErrors
		aggregate.Results = append(aggregate.Results, page.Results...)
	}
	c.requests++

	c.logger.Debug().
		Int("sub_requests", len(subs)).
		Int("results", len(aggregate.Results)).
		Bool("has_errors", aggregate.HasErrors).
		Msg("Composite batch complete")

	return aggregate, nil
}
