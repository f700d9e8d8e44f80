package tracker

import (
	"context"
	"fmt"
	"time"
)

// Record is one raw, semi-structured record as returned by the tracker.
type Record map[string]any

// SearchResult is one page of tracker search results.
type SearchResult struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// Client is the tracker collaborator consumed by the importer and the schema
// discovery. Implementations own their timeouts; callers own pacing and
// retries.
type Client interface {
	// Count returns the total number of records matching a query.
	Count(ctx context.Context, query string) (int, error)

	// Search returns one page of records matching a query.
	Search(ctx context.Context, query string, offset, pageSize int) (*SearchResult, error)

	// GetUpdatedSince returns records of a project updated since the given
	// time, bounded by pageSize.
	GetUpdatedSince(ctx context.Context, projectKey string, since time.Time, offset, pageSize int) (*SearchResult, error)
}

// ThrottledError signals the tracker is rate limiting the caller. RetryAfter
// is zero when the tracker gave no hint.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("tracker throttled, retry after %s", e.RetryAfter)
	}
	return "tracker throttled"
}
