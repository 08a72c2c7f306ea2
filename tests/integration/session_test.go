package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcekit/forceclient/internal/testutil"
	"github.com/forcekit/forceclient/pkg/client"
	"github.com/forcekit/forceclient/pkg/session"
)

func newSession(t *testing.T, mock *testutil.MockForce) *session.Session {
	t.Helper()

	s, err := session.New(mock.RedirectURL())
	require.NoError(t, err)
	return s
}

// TestFullQueryFlow exercises the complete flow: fragment parsing, URL
// building, authenticated execution and pagination across cursors.
func TestFullQueryFlow(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetQueryPages("43.0",
		`[{"attributes": {"type": "Contact"}, "Id": "003A", "Name": "Ada"}]`,
		`[{"attributes": {"type": "Contact"}, "Id": "003B", "Name": "Bob"}]`,
	)

	s := newSession(t, mock)

	records, err := s.Query(context.Background(), "SELECT Id, Name FROM Contact", nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "003A", records[0].ID)
	assert.Equal(t, "Bob", records[1].StringField("Name"))

	// One logical request for both pages, no failed attempts.
	assert.Equal(t, 2, mock.GetRequestCount())
	assert.Equal(t, 1, s.Requests())
	assert.Equal(t, 0, s.Errors())

	// Auth header taken from the fragment token.
	assert.Equal(t, "Bearer mock-token-123", mock.LastRequestHeader.Get("Authorization"))
}

// TestQueryRetryRecovery verifies that a transiently failing server is
// retried immediately and still produces a full result.
func TestQueryRetryRecovery(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetHandler("/services/data/v43.0/query", testutil.NewFlakyHandler(2, testutil.NewJSONHandler(
		`{"totalSize": 1, "done": true, "records": [{"Id": "003A"}]}`,
	)))

	s := newSession(t, mock)

	records, err := s.Query(context.Background(), "SELECT Id FROM Contact", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 3, mock.GetRequestCount())
	assert.Equal(t, 1, s.Requests())
	assert.Equal(t, 2, s.Errors())
}

// TestInsertUpdateFlow covers the record path end to end: tree insert
// followed by a collection update with the PATCH method override.
func TestInsertUpdateFlow(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetResponse("/services/data/v43.0/composite/tree/Contact/", testutil.MockResponse{
		StatusCode: http.StatusCreated,
		Body:       `{"hasErrors": false, "results": [{"id": "003A", "referenceId": "ref0"}]}`,
	})
	mock.SetResponse("/services/data/v43.0/composite/sobjects", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `[{"id": "003A", "success": true}]`,
	})

	s := newSession(t, mock)
	ctx := context.Background()

	inserted, err := s.Insert(ctx, session.Record{
		Type:   "Contact",
		Fields: map[string]any{"LastName": "Lovelace"},
	})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "003A", inserted[0].ID)

	updated, err := s.Update(ctx, session.Record{
		Type:   "Contact",
		ID:     inserted[0].ID,
		Fields: map[string]any{"LastName": "Byron"},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.True(t, updated[0].Success)

	patched := mock.RequestsTo("composite/sobjects")
	require.Len(t, patched, 1)
	assert.Contains(t, patched[0].Query, "_HttpMethod=PATCH")

	assert.Equal(t, 2, s.Requests())
	assert.Equal(t, 0, s.Errors())
}

// TestBatchFlow verifies composite batching and the counter semantics of
// chunked batches.
func TestBatchFlow(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetHandler("/services/data/v43.0/composite/batch/", testutil.NewBatchHandler())

	s := newSession(t, mock)

	subs := make([]client.SubRequest, 0, 30)
	for range 30 {
		subs = append(subs, client.NewSubRequest("limits/"))
	}
	resp, err := s.Batch(context.Background(), subs, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 30)
	assert.False(t, resp.HasErrors)

	// Two round trips (25 + 5), one logical request.
	assert.Equal(t, 2, mock.GetRequestCount())
	assert.Equal(t, 1, s.Requests())
}
