package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItem() *TrackedItem {
	return &TrackedItem{
		ExternalID:         "PROJ-1",
		Category:           "user_story",
		Title:              "Add login page",
		Description:        "As a user I want to log in",
		Status:             "todo",
		Priority:           "high",
		Component:          "auth",
		Assignee:           "dev one",
		Reporter:           "pm one",
		AcceptanceCriteria: "Given a user...",
		SourceCreatedAt:    testTime(1),
		SourceUpdatedAt:    testTime(2),
	}
}

func TestUpsertItem_Insert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, sampleItem()))

	got, err := s.GetItem(ctx, "PROJ-1", "user_story")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Add login page", got.Title)
	assert.Equal(t, "todo", got.Status)
	assert.Equal(t, "auth", got.Component)

	// Timestamps come from the source, not the wall clock.
	assert.Equal(t, testTime(1), got.CreatedAt)
	assert.Equal(t, testTime(2), got.UpdatedAt)
	assert.Equal(t, testTime(1), got.SourceCreatedAt)
	assert.Equal(t, testTime(2), got.SourceUpdatedAt)
}

func TestUpsertItem_UpdatePreservesCreatedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, sampleItem()))

	updated := sampleItem()
	updated.Title = "Add SSO login page"
	updated.Status = "in_progress"
	updated.SourceCreatedAt = testTime(5) // a drifted source created date must not move created_at
	updated.SourceUpdatedAt = testTime(7)
	require.NoError(t, s.UpsertItem(ctx, updated))

	got, err := s.GetItem(ctx, "PROJ-1", "user_story")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Add SSO login page", got.Title)
	assert.Equal(t, "in_progress", got.Status)
	assert.Equal(t, testTime(1), got.CreatedAt)
	assert.Equal(t, testTime(7), got.UpdatedAt)
	assert.Equal(t, testTime(7), got.SourceUpdatedAt)

	n, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertItem_SameIDDifferentCategory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	story := sampleItem()
	require.NoError(t, s.UpsertItem(ctx, story))

	defect := sampleItem()
	defect.Category = "defect"
	defect.Title = "Login fails"
	require.NoError(t, s.UpsertItem(ctx, defect))

	n, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsertItem_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	noID := sampleItem()
	noID.ExternalID = ""
	assert.Error(t, s.UpsertItem(ctx, noID))

	noCategory := sampleItem()
	noCategory.Category = ""
	assert.Error(t, s.UpsertItem(ctx, noCategory))
}

func TestGetItem_Absent(t *testing.T) {
	s := createTestStore(t)

	got, err := s.GetItem(context.Background(), "NOPE-1", "user_story")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"PROJ-3", "PROJ-1", "PROJ-2"} {
		item := sampleItem()
		item.ExternalID = id
		require.NoError(t, s.UpsertItem(ctx, item))
	}

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "PROJ-1", items[0].ExternalID)
	assert.Equal(t, "PROJ-2", items[1].ExternalID)
	assert.Equal(t, "PROJ-3", items[2].ExternalID)
}
