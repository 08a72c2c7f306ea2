// Package testutil provides testing utilities for the Salesforce REST client.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// MockResponse defines the behavior of a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockForce is a configurable mock Salesforce REST server for testing.
type MockForce struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastRequestBody   []byte
	LastRequestURL    *url.URL
	Requests          []RecordedRequest
}

// RecordedRequest captures one call observed by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// NewMockForce creates a new mock Salesforce server.
func NewMockForce() *MockForce {
	mock := &MockForce{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequestBody = body
		mock.LastRequestURL = r.URL
		mock.Requests = append(mock.Requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
		})
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockForce) URL() string {
	return m.server.URL
}

// RedirectURL builds an OAuth implicit-grant redirect URL whose fragment
// points the client at this mock server.
func (m *MockForce) RedirectURL() string {
	return "https://app.example.com/callback#access_token=mock-token-123&token_type=Bearer" +
		"&instance_url=" + url.QueryEscape(m.server.URL) + "&issued_at=1540395106819"
}

// Close shuts down the mock server.
func (m *MockForce) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockForce) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastRequestBody = nil
	m.LastRequestURL = nil
	m.Requests = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockForce) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockForce) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetQueryPages configures the query endpoint (and follow-up cursor
// paths) to return the given record pages in order. Every page except the
// last carries a nextRecordsUrl cursor.
func (m *MockForce) SetQueryPages(version string, pages ...string) {
	base := "/services/data/v" + version + "/query"
	m.setPagedResponses(base, "records", pages)
}

// SetSearchPages configures the search endpoint like SetQueryPages.
func (m *MockForce) SetSearchPages(version string, pages ...string) {
	base := "/services/data/v" + version + "/search"
	m.setPagedResponses(base, "records", pages)
}

func (m *MockForce) setPagedResponses(base, field string, pages []string) {
	for i, page := range pages {
		path := base
		if i > 0 {
			path = fmt.Sprintf("%s/page-%d", base, i)
		}

		body := fmt.Sprintf(`{"totalSize": %d, "done": %t, %q: %s`, len(pages), i == len(pages)-1, field, page)
		if i < len(pages)-1 {
			body += fmt.Sprintf(`, "nextRecordsUrl": %q`, fmt.Sprintf("%s/page-%d", base, i+1))
		}
		body += "}"

		m.SetResponse(path, MockResponse{StatusCode: http.StatusOK, Body: body})
	}
}

// RequestsTo returns the recorded requests whose path contains substr.
func (m *MockForce) RequestsTo(substr string) []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []RecordedRequest
	for _, req := range m.Requests {
		if strings.Contains(req.Path, substr) {
			matched = append(matched, req)
		}
	}
	return matched
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockForce) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler returns an empty JSON object for unconfigured paths.
func (m *MockForce) defaultHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{}`))
}

// NewBatchHandler returns a handler for the composite-batch endpoint that
// echoes each sub-request URL back as its result, useful for asserting
// chunk counts and ordering.
func NewBatchHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var payload struct {
			BatchRequests []struct {
				Method string `json:"method"`
				URL    string `json:"url"`
			} `json:"batchRequests"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		results := make([]string, len(payload.BatchRequests))
		for i, sub := range payload.BatchRequests {
			results[i] = fmt.Sprintf(`{"statusCode": 200, "result": {"url": %q}}`, sub.URL)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"hasErrors": false, "results": [%s]}`, strings.Join(results, ","))
	}
}

// NewFlakyHandler returns a handler that fails with 500 for the first
// failures calls, then delegates to next.
func NewFlakyHandler(failures int, next func(w http.ResponseWriter, r *http.Request)) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	calls := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "internal server error"}`))
			return
		}
		next(w, r)
	}
}

// NewJSONHandler returns a handler that always answers 200 with body.
func NewJSONHandler(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
