package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// resultPage is one page of a query or search response. Search pages
// carry their records under searchRecords; both shapes share the
// nextRecordsUrl continuation cursor.
type resultPage struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	Records        []Record `json:"records"`
	SearchRecords  []Record `json:"searchRecords"`
	NextRecordsURL string   `json:"nextRecordsUrl"`
}

func (p *resultPage) records() []Record {
	if p.Records == nil && p.SearchRecords != nil {
		return p.SearchRecords
	}
	return p.Records
}

// Query executes a SOQL query and follows the pagination cursor until
// exhausted, returning all record pages concatenated in page order. An
// empty soql re-runs the session's last query. The executed string is
// re-stored before execution; the result state is replaced only by the
// final accumulated sequence, never a partial page, and on any page
// failure the accumulation is discarded and the failure sentinel stored.
func (s *Session) Query(ctx context.Context, soql string, params url.Values) ([]Record, error) {
	if soql == "" {
		soql = s.lastQuery
	}
	s.lastQuery = soql

	records, err := s.fetchAllPages(ctx, "query?q="+url.QueryEscape(soql), params)
	if err != nil {
		s.lastQueryRecords, s.lastQueryOK = nil, false
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	s.lastQueryRecords, s.lastQueryOK = records, true
	s.logger.Debug().
		Str("soql", soql).
		Int("records", len(records)).
		Msg("Query complete")
	return records, nil
}

// Search executes a SOSL search with the same pagination and state
// semantics as Query. An empty sosl re-runs the session's last search.
func (s *Session) Search(ctx context.Context, sosl string, params url.Values) ([]Record, error) {
	if sosl == "" {
		sosl = s.lastSearch
	}
	s.lastSearch = sosl

	records, err := s.fetchAllPages(ctx, "search?q="+url.QueryEscape(sosl), params)
	if err != nil {
		s.lastSearchRecords, s.lastSearchOK = nil, false
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	s.lastSearchRecords, s.lastSearchOK = records, true
	s.logger.Debug().
		Str("sosl", sosl).
		Int("records", len(records)).
		Msg("Search complete")
	return records, nil
}

// fetchAllPages walks the nextRecordsUrl cursor chain. Page fetches are
// strictly sequential: the next cursor is only known once the current
// page completes. Cursor GETs go through the oversized-GET router like
// any other GET.
func (s *Session) fetchAllPages(ctx context.Context, action string, params url.Values) ([]Record, error) {
	resp, err := s.client.Get(ctx, action, params)
	if err != nil {
		return nil, err
	}

	var page resultPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("decode result page: %w", err)
	}

	all := page.records()
	for page.NextRecordsURL != "" {
		cursor := page.NextRecordsURL
		resp, err = s.client.Get(ctx, cursor, nil)
		if err != nil {
			return nil, err
		}

		page = resultPage{}
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("decode result page %q: %w", cursor, err)
		}
		all = append(all, page.records()...)
	}

	return all, nil
}
