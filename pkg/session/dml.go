package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type recordsPayload struct {
	Records []Record `json:"records"`
}

// treePage is one chunk response from the composite-tree endpoint.
type treePage struct {
	HasErrors bool           `json:"hasErrors"`
	Results   []InsertResult `json:"results"`
}

// Insert creates records of one sObject type. A single record is simply
// a one-element call. Records are validated before any network call and
// assumed homogeneous: the type is read once, from the first record.
// Submissions are split into chunks of at most RecordChunkSize, issued
// sequentially against composite/tree, and the per-chunk results merged
// in submission order. Any chunk failure fails the whole operation and
// discards earlier chunk results from the returned value; the session
// cannot roll back chunks the service already committed.
func (s *Session) Insert(ctx context.Context, records ...Record) ([]InsertResult, error) {
	if err := validateRecords(records, false); err != nil {
		s.lastInsertResults, s.lastInsertOK = nil, false
		return nil, err
	}
	objectType := records[0].Type

	var results []InsertResult
	for start := 0; start < len(records); start += RecordChunkSize {
		end := min(start+RecordChunkSize, len(records))

		resp, err := s.client.Do(ctx, http.MethodPost, "composite/tree/"+objectType+"/",
			recordsPayload{Records: records[start:end]}, nil)
		if err != nil {
			s.lastInsertResults, s.lastInsertOK = nil, false
			return nil, fmt.Errorf("%w: %s: %w", ErrInsertFailed, objectType, err)
		}

		var page treePage
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			s.lastInsertResults, s.lastInsertOK = nil, false
			return nil, fmt.Errorf("%w: %s: decode chunk response: %v", ErrInsertFailed, objectType, err)
		}
		results = append(results, page.Results...)
	}

	s.lastInsertResults, s.lastInsertOK = results, true
	s.logger.Debug().
		Str("sobject", objectType).
		Int("records", len(records)).
		Msg("Insert complete")
	return results, nil
}

// Update patches existing records of one sObject type. Validation
// additionally requires a record identifier. Chunks of at most
// RecordChunkSize are POSTed to composite/sobjects with the PATCH method
// override, and the raw per-chunk save results merged in order. Failure
// semantics match Insert.
func (s *Session) Update(ctx context.Context, records ...Record) ([]SaveResult, error) {
	if err := validateRecords(records, true); err != nil {
		s.lastUpdateResults, s.lastUpdateOK = nil, false
		return nil, err
	}
	objectType := records[0].Type

	var results []SaveResult
	for start := 0; start < len(records); start += RecordChunkSize {
		end := min(start+RecordChunkSize, len(records))

		resp, err := s.client.Do(ctx, http.MethodPost, "composite/sobjects?_HttpMethod=PATCH",
			recordsPayload{Records: records[start:end]}, nil)
		if err != nil {
			s.lastUpdateResults, s.lastUpdateOK = nil, false
			return nil, fmt.Errorf("%w: %s: %w", ErrUpdateFailed, objectType, err)
		}

		var page []SaveResult
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			s.lastUpdateResults, s.lastUpdateOK = nil, false
			return nil, fmt.Errorf("%w: %s: decode chunk response: %v", ErrUpdateFailed, objectType, err)
		}
		results = append(results, page...)
	}

	s.lastUpdateResults, s.lastUpdateOK = results, true
	s.logger.Debug().
		Str("sobject", objectType).
		Int("records", len(records)).
		Msg("Update complete")
	return results, nil
}
