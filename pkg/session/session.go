// Package session implements the user-facing Salesforce REST session:
// query and search with server-driven pagination, chunked insert and
// update, composite batch, and last-result state.
package session

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forcekit/forceclient/pkg/client"
	"github.com/forcekit/forceclient/pkg/oauth"
)

// Session is a single-user client session. It owns its credential set
// and state exclusively; operations are strictly sequential within one
// call and the session performs no internal locking, so concurrent use
// from multiple goroutines is caller-coordinated.
type Session struct {
	client *client.Client
	logger zerolog.Logger

	lastQuery  string
	lastSearch string

	lastQueryRecords  []Record
	lastQueryOK       bool
	lastSearchRecords []Record
	lastSearchOK      bool
	lastInsertResults []InsertResult
	lastInsertOK      bool
	lastUpdateResults []SaveResult
	lastUpdateOK      bool
}

type options struct {
	clientConfig client.Config
}

// Option configures a session at construction.
type Option func(*options)

// WithInstanceURL overrides the instance endpoint parsed from the
// redirect fragment.
func WithInstanceURL(instanceURL string) Option {
	return func(o *options) { o.clientConfig.InstanceURL = instanceURL }
}

// WithAPIVersion sets the REST API version (default "43.0").
func WithAPIVersion(version string) Option {
	return func(o *options) { o.clientConfig.APIVersion = version }
}

// WithServicesBasePath sets the REST root (default "/services/data/").
func WithServicesBasePath(basePath string) Option {
	return func(o *options) { o.clientConfig.ServicesBasePath = basePath }
}

// WithMaxRetries sets the number of additional attempts per logical call.
func WithMaxRetries(maxRetries int) Option {
	return func(o *options) { o.clientConfig.MaxRetries = maxRetries }
}

// WithHTTPClient injects the underlying transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.clientConfig.HTTPClient = httpClient }
}

// WithLogger injects a logger for request and operation events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.clientConfig.Logger = &logger }
}

// New constructs a session from an OAuth implicit-grant redirect URL.
// The fragment is parsed once, here; an absent fragment yields an empty
// credential set and every subsequent call fails authentication on the
// service side rather than locally.
func New(redirectURL string, opts ...Option) (*Session, error) {
	o := options{clientConfig: client.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	creds := oauth.Parse(redirectURL)
	c, err := client.New(creds, o.clientConfig)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "force-session").Logger()
	if o.clientConfig.Logger != nil {
		logger = *o.clientConfig.Logger
	}

	return &Session{client: c, logger: logger}, nil
}

// Client returns the underlying REST client.
func (s *Session) Client() *client.Client {
	return s.client
}

// Batch submits sub-requests through the composite-batch endpoint,
// split into chunks of at most client.BatchChunkSize and merged back
// into one aggregate response in submission order.
func (s *Session) Batch(ctx context.Context, subs []client.SubRequest, params url.Values) (*client.BatchResponse, error) {
	return s.client.Batch(ctx, subs, params)
}

// GetAll fetches several action paths in one logical batch call.
func (s *Session) GetAll(ctx context.Context, actions []string, params url.Values) (*client.BatchResponse, error) {
	return s.client.GetAll(ctx, actions, params)
}

// LastQuery returns the most recently executed SOQL string.
func (s *Session) LastQuery() string {
	return s.lastQuery
}

// LastSearch returns the most recently executed SOSL string.
func (s *Session) LastSearch() string {
	return s.lastSearch
}

// LastQueryRecords returns the result of the last query and whether it
// succeeded. After a failed query the records are nil and ok is false.
func (s *Session) LastQueryRecords() ([]Record, bool) {
	return s.lastQueryRecords, s.lastQueryOK
}

// LastSearchRecords returns the result of the last search and whether it
// succeeded.
func (s *Session) LastSearchRecords() ([]Record, bool) {
	return s.lastSearchRecords, s.lastSearchOK
}

// LastInsertResults returns the result of the last insert and whether it
// succeeded.
func (s *Session) LastInsertResults() ([]InsertResult, bool) {
	return s.lastInsertResults, s.lastInsertOK
}

// LastUpdateResults returns the result of the last update and whether it
// succeeded.
func (s *Session) LastUpdateResults() ([]SaveResult, bool) {
	return s.lastUpdateResults, s.lastUpdateOK
}

// Requests returns the cumulative count of logical requests.
func (s *Session) Requests() int {
	return s.client.Requests()
}

// Errors returns the cumulative count of failed request attempts.
func (s *Session) Errors() int {
	return s.client.Errors()
}
