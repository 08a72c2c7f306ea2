package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcekit/forceclient/internal/testutil"
)

// treeHandler answers composite-tree inserts with one result per
// submitted record, numbered across calls.
func treeHandler() func(w http.ResponseWriter, r *http.Request) {
	seq := 0
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Records []json.RawMessage `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		results := make([]string, len(payload.Records))
		for i := range payload.Records {
			results[i] = fmt.Sprintf(`{"referenceId": "ref%d", "id": "003xx%04d"}`, seq, seq)
			seq++
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"hasErrors": false, "results": [%s]}`, strings.Join(results, ","))
	}
}

// patchHandler answers update chunks with one save result per record.
func patchHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Records []struct {
				ID string `json:"Id"`
			} `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		results := make([]string, len(payload.Records))
		for i, rec := range payload.Records {
			results[i] = fmt.Sprintf(`{"id": %q, "success": true, "errors": []}`, rec.ID)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `[%s]`, strings.Join(results, ","))
	}
}

func TestInsert_SingleRecordPromotedToArray(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetHandler("/services/data/v43.0/composite/tree/Contact/", treeHandler())

	s := newTestSession(t, mock)

	results, err := s.Insert(context.Background(), Record{
		Type:   "Contact",
		Fields: map[string]any{"Name": "A"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The submitted body wraps the promoted one-element array.
	assert.JSONEq(t,
		`{"records": [{"attributes": {"type": "Contact"}, "Name": "A"}]}`,
		string(mock.LastRequestBody))

	stored, ok := s.LastInsertResults()
	assert.True(t, ok)
	assert.Equal(t, results, stored)
}

func TestInsert_ChunkCount(t *testing.T) {
	tests := []struct {
		length     int
		wantChunks int
	}{
		{1, 1},
		{200, 1},
		{201, 2},
		{450, 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("length_%d", tt.length), func(t *testing.T) {
			mock := testutil.NewMockForce()
			defer mock.Close()

			mock.SetHandler("/services/data/v43.0/composite/tree/Contact/", treeHandler())

			s := newTestSession(t, mock)

			records := make([]Record, tt.length)
			for i := range records {
				records[i] = Record{Type: "Contact", Fields: map[string]any{"Name": fmt.Sprintf("r%d", i)}}
			}

			results, err := s.Insert(context.Background(), records...)
			require.NoError(t, err)

			assert.Equal(t, tt.wantChunks, mock.GetRequestCount(), "chunk calls")
			assert.Len(t, results, tt.length, "aggregate length equals sum of per-chunk lengths")

			// Merged in submission order.
			for i, result := range results {
				assert.Equal(t, fmt.Sprintf("ref%d", i), result.ReferenceID)
			}
		})
	}
}

func TestInsert_InvalidRecords(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	s := newTestSession(t, mock)

	tests := []struct {
		name    string
		records []Record
	}{
		{"no records", nil},
		{"missing type", []Record{{Fields: map[string]any{"Name": "A"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Insert(context.Background(), tt.records...)
			assert.ErrorIs(t, err, ErrInvalidRecords)
		})
	}

	// Precondition violations never reach the network.
	assert.Equal(t, 0, mock.GetRequestCount())

	stored, ok := s.LastInsertResults()
	assert.False(t, ok)
	assert.Nil(t, stored)
}

func TestInsert_ChunkFailureFailsWholeOperation(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	calls := 0
	mock.SetHandler("/services/data/v43.0/composite/tree/Contact/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		treeHandler()(w, r)
	})

	s := newTestSession(t, mock)

	records := make([]Record, 250)
	for i := range records {
		records[i] = Record{Type: "Contact", Fields: map[string]any{"Name": "A"}}
	}

	results, err := s.Insert(context.Background(), records...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.Contains(t, err.Error(), "Contact")
	assert.Nil(t, results)

	stored, ok := s.LastInsertResults()
	assert.False(t, ok)
	assert.Nil(t, stored)
}

func TestUpdate_SubmitsPatchOverride(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetHandler("/services/data/v43.0/composite/sobjects", patchHandler())

	s := newTestSession(t, mock)

	results, err := s.Update(context.Background(), Record{
		Type:   "Contact",
		ID:     "003xx0001",
		Fields: map[string]any{"Name": "B"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "003xx0001", results[0].ID)
	assert.True(t, results[0].Success)

	// POSTed with the PATCH method override.
	last := mock.Requests[len(mock.Requests)-1]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "PATCH", mock.LastRequestURL.Query().Get("_HttpMethod"))

	stored, ok := s.LastUpdateResults()
	assert.True(t, ok)
	assert.Equal(t, results, stored)
}

func TestUpdate_RequiresIdentifier(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	s := newTestSession(t, mock)

	_, err := s.Update(context.Background(), Record{
		Type:   "Contact",
		Fields: map[string]any{"Name": "B"},
	})
	assert.ErrorIs(t, err, ErrInvalidRecords)
	assert.Equal(t, 0, mock.GetRequestCount())
}

func TestUpdate_ChunkCountAndMergedResults(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetHandler("/services/data/v43.0/composite/sobjects", patchHandler())

	s := newTestSession(t, mock)

	records := make([]Record, 401)
	for i := range records {
		records[i] = Record{Type: "Contact", ID: fmt.Sprintf("003xx%04d", i), Fields: map[string]any{"Name": "A"}}
	}

	results, err := s.Update(context.Background(), records...)
	require.NoError(t, err)

	assert.Equal(t, 3, mock.GetRequestCount(), "chunk calls")
	require.Len(t, results, 401)
	assert.Equal(t, "003xx0000", results[0].ID)
	assert.Equal(t, "003xx0400", results[400].ID)
}

func TestUpdate_FailureStoresSentinel(t *testing.T) {
	mock := testutil.NewMockForce()
	defer mock.Close()

	mock.SetResponse("/services/data/v43.0/composite/sobjects", testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "boom"}`,
	})

	s := newTestSession(t, mock)

	_, err := s.Update(context.Background(), Record{Type: "Contact", ID: "003xx", Fields: map[string]any{}})
	assert.ErrorIs(t, err, ErrUpdateFailed)

	stored, ok := s.LastUpdateResults()
	assert.False(t, ok)
	assert.Nil(t, stored)
}
