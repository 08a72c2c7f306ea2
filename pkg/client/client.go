// Package client provides the core Salesforce REST request layer:
// authenticated request execution with bounded retry, endpoint URL
// construction, oversized-GET rerouting, and composite-batch splitting.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forcekit/forceclient/pkg/oauth"
)

// Prometheus metrics for REST client operations.
var (
	forceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "force_requests_total",
		Help: "Total Salesforce REST calls by method and result",
	}, []string{"method", "result"})

	forceRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "force_request_duration_seconds",
		Help:    "Salesforce REST call duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	forceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "force_errors_total",
		Help: "Total Salesforce REST errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures. It drives
// logging and metrics only; the retry policy is uniform.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport and decode errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Default configuration values. MaxURLLength is a practical ceiling for
// URL-length-limited intermediaries; GETs above it are rerouted through
// the composite-batch endpoint.
const (
	DefaultServicesBasePath = "/services/data/"
	DefaultAPIVersion       = "43.0"
	DefaultMaxRetries       = 3
	DefaultMaxURLLength     = 2048
)

// Config holds the client configuration.
type Config struct {
	// InstanceURL overrides the instance endpoint parsed from the
	// redirect fragment.
	InstanceURL string

	// ServicesBasePath is the REST root, default "/services/data/".
	ServicesBasePath string

	// APIVersion is the REST API version string, default "43.0".
	APIVersion string

	// MaxRetries is the number of additional attempts after a failed
	// call (default 3, so 4 attempts total).
	MaxRetries int

	// MaxURLLength is the longest GET URL issued directly.
	MaxURLLength int

	// HTTPClient is the underlying transport. Defaults to a client with
	// a 30s timeout; the session imposes no deadline of its own.
	HTTPClient *http.Client

	// Logger for request-level events. Defaults to the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		ServicesBasePath: DefaultServicesBasePath,
		APIVersion:       DefaultAPIVersion,
		MaxRetries:       DefaultMaxRetries,
		MaxURLLength:     DefaultMaxURLLength,
	}
}

// Response is the decoded outcome of one REST call. For PATCH calls only
// the status code is populated, mirroring the service's empty-body
// convention for updates.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Client issues authenticated Salesforce REST calls. It is owned by a
// single session and performs no internal locking; concurrent use is
// caller-coordinated.
type Client struct {
	creds      *oauth.Credentials
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger

	// Request accounting. A multi-attempt call counts as one logical
	// request; every failed attempt counts as one error.
	requests int
	errors   int
}

// New creates a client around an already-parsed credential set. Token
// presence is deliberately not validated here: a missing access token
// surfaces as a service-side 401, not a local precondition failure.
func New(creds *oauth.Credentials, cfg Config) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials are required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.ServicesBasePath == "" {
		cfg.ServicesBasePath = DefaultServicesBasePath
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.MaxURLLength <= 0 {
		cfg.MaxURLLength = DefaultMaxURLLength
	}
	if cfg.InstanceURL != "" {
		creds.SetInstanceURL(cfg.InstanceURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := log.With().Str("component", "force-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		creds:      creds,
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Requests returns the number of logical requests issued so far.
func (c *Client) Requests() int {
	return c.requests
}

// Errors returns the number of failed attempts recorded so far.
func (c *Client) Errors() int {
	return c.errors
}

// Credentials returns the credential set backing this client.
func (c *Client) Credentials() *oauth.Credentials {
	return c.creds
}

// APIVersion returns the configured REST API version.
func (c *Client) APIVersion() string {
	return c.config.APIVersion
}

// versionedPath returns the action path relative to the REST root, as
// used in composite-batch sub-request URLs. Cursor paths already rooted
// at the services base are trimmed instead of re-versioned.
func (c *Client) versionedPath(action string) string {
	if strings.HasPrefix(action, c.config.ServicesBasePath) {
		return strings.TrimPrefix(action, c.config.ServicesBasePath)
	}
	action = strings.TrimPrefix(action, "/")
	return "v" + c.config.APIVersion + "/" + action
}

// buildURL composes the fully qualified endpoint URL for an action.
// Actions beginning with "/" are instance-rooted, which is the shape of
// server-issued pagination cursors.
func (c *Client) buildURL(action string) string {
	if strings.HasPrefix(action, "/") {
		return c.creds.InstanceURL() + action
	}
	return c.creds.InstanceURL() + c.config.ServicesBasePath + c.versionedPath(action)
}

// requestURL appends encoded extra transport parameters to the built URL.
func (c *Client) requestURL(action string, params url.Values) string {
	endpoint := c.buildURL(action)
	if len(params) == 0 {
		return endpoint
	}
	if strings.Contains(endpoint, "?") {
		return endpoint + "&" + params.Encode()
	}
	return endpoint + "?" + params.Encode()
}

// Do performs one authenticated REST call and returns the decoded JSON
// response. The logical call increments the request counter exactly once;
// transient failures are retried immediately up to MaxRetries additional
// attempts, each failed attempt incrementing the error counter.
func (c *Client) Do(ctx context.Context, method, action string, payload any, params url.Values) (*Response, error) {
	c.requests++
	reqID := uuid.NewString()
	endpoint := c.requestURL(action, params)

	startTime := time.Now()
	defer func() {
		forceRequestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			c.errors++
			forceErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
			c.logger.Error().Err(err).
				Str("method", method).
				Str("action", action).
				Str("request_id", reqID).
				Msg("Payload encoding failed")
			return nil, fmt.Errorf("%w: %s %s", ErrRequestFailed, method, action)
		}
		body = encoded
	}

	c.logger.Debug().
		Str("method", method).
		Str("action", action).
		Str("request_id", reqID).
		Msg("Executing REST request")

	resp, err := c.withRetry(ctx, method, action, reqID, func() (*Response, error) {
		return c.attempt(ctx, method, endpoint, body)
	})
	if err != nil {
		forceRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	forceRequestsTotal.WithLabelValues(method, "ok").Inc()
	return resp, nil
}

// attempt issues a single HTTP call. The Authorization header is derived
// fresh from the credential set on every attempt, so a mutated credential
// set is honored immediately.
func (c *Client) attempt(ctx context.Context, method, endpoint string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", c.creds.TokenType()+" "+c.creds.AccessToken())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: httpResp.StatusCode,
			Class:      classifyStatus(httpResp.StatusCode),
			Message:    httpResp.Status,
		}
	}

	// Updates come back with an empty body; the status code is the result.
	if method == http.MethodPatch {
		return &Response{StatusCode: httpResp.StatusCode}, nil
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("response body is not valid JSON")
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

// Get issues a GET for a single action path. When the composed URL
// exceeds the configured ceiling, the call is transparently rerouted as a
// one-element composite batch; callers never observe the batch envelope.
func (c *Client) Get(ctx context.Context, action string, params url.Values) (*Response, error) {
	if len(c.requestURL(action, params)) > c.config.MaxURLLength {
		c.logger.Debug().
			Str("action", action).
			Int("max_url_length", c.config.MaxURLLength).
			Msg("GET URL over length ceiling, rerouting through composite batch")

		sub := SubRequest{Method: http.MethodGet, URL: action}
		if len(params) > 0 {
			if strings.Contains(sub.URL, "?") {
				sub.URL += "&" + params.Encode()
			} else {
				sub.URL += "?" + params.Encode()
			}
		}

		batch, err := c.Batch(ctx, []SubRequest{sub}, nil)
		if err != nil {
			return nil, err
		}
		result := batch.Results[0]
		return &Response{StatusCode: result.StatusCode, Body: result.Result}, nil
	}

	return c.Do(ctx, http.MethodGet, action, nil, params)
}

// GetAll is the multi-GET convenience form: every action is routed
// through the composite batch mechanism unconditionally.
func (c *Client) GetAll(ctx context.Context, actions []string, params url.Values) (*BatchResponse, error) {
	subs := make([]SubRequest, len(actions))
	for i, action := range actions {
		subs[i] = NewSubRequest(action)
	}
	return c.Batch(ctx, subs, params)
}
