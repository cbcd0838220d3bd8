// internal/search/errors.go
package search

import "errors"

var (
	// ErrInvalidQuery is returned for queries that are empty after trimming.
	ErrInvalidQuery = errors.New("search query must not be empty")

	// ErrBusy is returned when another aggregation is already running.
	// Aggregations hammer upstream sites, so at most one runs per process;
	// callers are expected to retry later rather than queue up.
	ErrBusy = errors.New("a search is already in progress")
)
