package mapping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halim/trackmind/pkg/tracker"
)

// fakeTracker serves canned records for schema discovery tests.
type fakeTracker struct {
	records []tracker.Record
	err     error
}

func (f *fakeTracker) Count(ctx context.Context, query string) (int, error) {
	return len(f.records), f.err
}

func (f *fakeTracker) Search(ctx context.Context, query string, offset, pageSize int) (*tracker.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tracker.SearchResult{Items: f.records, Total: len(f.records)}, nil
}

func (f *fakeTracker) GetUpdatedSince(ctx context.Context, projectKey string, since time.Time, offset, pageSize int) (*tracker.SearchResult, error) {
	return f.Search(ctx, "", offset, pageSize)
}

func discoveryRecord(issueType, status, priority string, custom map[string]any) tracker.Record {
	fields := map[string]any{
		"issuetype": map[string]any{"name": issueType},
		"status":    map[string]any{"name": status},
		"priority":  map[string]any{"name": priority},
	}
	for k, v := range custom {
		fields[k] = v
	}
	return tracker.Record{"key": "PROJ-1", "fields": fields}
}

func TestDiscoverSchema(t *testing.T) {
	client := &fakeTracker{records: []tracker.Record{
		discoveryRecord("Story", "Open", "High", map[string]any{"customfield_10020": "AC"}),
		discoveryRecord("Bug", "Done", "Low", map[string]any{"customfield_10055": float64(8)}),
		discoveryRecord("Story", "Open", "High", map[string]any{"customfield_10099": nil}),
	}}

	schema, err := DiscoverSchema(context.Background(), client, "PROJ")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bug", "Story"}, schema.IssueTypes)
	assert.Equal(t, []string{"Done", "Open"}, schema.Statuses)
	assert.Equal(t, []string{"High", "Low"}, schema.Priorities)

	// Null-valued custom fields are not reported.
	assert.Equal(t, []string{"customfield_10020", "customfield_10055"}, schema.CustomFields)
	assert.Equal(t, 3, schema.Sampled)
}

func TestDiscoverSchema_EmptyProject(t *testing.T) {
	schema, err := DiscoverSchema(context.Background(), &fakeTracker{}, "PROJ")
	require.NoError(t, err)

	assert.Empty(t, schema.IssueTypes)
	assert.Equal(t, 0, schema.Sampled)
}

func TestDiscoverSchema_TrackerError(t *testing.T) {
	client := &fakeTracker{err: errors.New("connection refused")}

	_, err := DiscoverSchema(context.Background(), client, "PROJ")
	assert.Error(t, err)
}
