package embedding

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halim/trackmind/pkg/store"
)

func createTestEmbeddingStore(t *testing.T) *Store {
	t.Helper()

	db, err := store.Open(store.Config{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Logger: testLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(Config{
		Store:    db,
		Provider: NewHashProvider(64),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return s
}

func embedReq(content string) Request {
	return Request{
		Content:    content,
		SourceID:   "PROJ-1",
		SourceType: "user_story",
		Version:    "v1",
	}
}

func TestEmbedContent_CreateThenSkipThenUpdate(t *testing.T) {
	s := createTestEmbeddingStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	// First call creates.
	res, err := s.EmbedContent(ctx, embedReq("hello world"))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)

	// Same content skips.
	res, err = s.EmbedContent(ctx, embedReq("hello world"))
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, res.Action)
	assert.Equal(t, ReasonContentUnchanged, res.Reason)

	// Changed content inside the staleness window still skips interactively.
	now = base.Add(30 * time.Minute)
	res, err = s.EmbedContent(ctx, embedReq("hello world, edited"))
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, res.Action)
	assert.Equal(t, ReasonRecentlyGenerated, res.Reason)

	// Once the window passes, the change goes through.
	now = base.Add(2 * time.Hour)
	res, err = s.EmbedContent(ctx, embedReq("hello world, edited"))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, ReasonContentChanged, res.Reason)
}

func TestEmbedContent_BulkBypassesWindow(t *testing.T) {
	s := createTestEmbeddingStore(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.EmbedContent(ctx, embedReq("original"))
	require.NoError(t, err)

	req := embedReq("changed")
	req.BulkImport = true
	now = now.Add(time.Minute)

	res, err := s.EmbedContent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, res.Action)
}

func TestEmbedContent_ForceRegenerate(t *testing.T) {
	s := createTestEmbeddingStore(t)
	ctx := context.Background()

	_, err := s.EmbedContent(ctx, embedReq("same content"))
	require.NoError(t, err)

	req := embedReq("same content")
	req.ForceRegenerate = true

	res, err := s.EmbedContent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, ReasonForced, res.Reason)
}

func TestEmbedContent_Validation(t *testing.T) {
	s := createTestEmbeddingStore(t)
	ctx := context.Background()

	_, err := s.EmbedContent(ctx, Request{SourceID: "PROJ-1", SourceType: "user_story"})
	assert.Error(t, err)

	_, err = s.EmbedContent(ctx, Request{Content: "text"})
	assert.Error(t, err)
}

func TestEmbedContent_StoresDocumentDate(t *testing.T) {
	s := createTestEmbeddingStore(t)
	ctx := context.Background()

	docDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req := embedReq("dated content")
	req.DocumentDate = &docDate

	_, err := s.EmbedContent(ctx, req)
	require.NoError(t, err)

	rec, err := s.store.GetEmbedding(ctx, "PROJ-1", "user_story")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, rec.DocumentDate)
	assert.Equal(t, docDate, *rec.DocumentDate)
}

func TestDeleteEmbeddingsAndStats(t *testing.T) {
	s := createTestEmbeddingStore(t)
	ctx := context.Background()

	_, err := s.EmbedContent(ctx, embedReq("content"))
	require.NoError(t, err)

	req := embedReq("defect content")
	req.SourceType = "defect"
	_, err = s.EmbedContent(ctx, req)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	n, err := s.DeleteEmbeddings(ctx, "PROJ-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}
