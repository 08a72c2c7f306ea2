package session

import "errors"

// Operation errors surfaced by the session facade. Each failed operation
// also stores a failure sentinel in the corresponding last-result field,
// inspectable without catching the error.
var (
	// ErrQueryFailed is returned when any page of a query fails.
	ErrQueryFailed = errors.New("query failed")

	// ErrSearchFailed is returned when any page of a search fails.
	ErrSearchFailed = errors.New("search failed")

	// ErrInsertFailed is returned when any insert chunk fails.
	ErrInsertFailed = errors.New("insert failed")

	// ErrUpdateFailed is returned when any update chunk fails.
	ErrUpdateFailed = errors.New("update failed")

	// ErrInvalidRecords is returned before any network call when the
	// submitted records violate the insert/update preconditions.
	ErrInvalidRecords = errors.New("invalid records")
)
