package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectConfigRoundtrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	got, err := s.GetProjectConfig(ctx, "PROJ")
	require.NoError(t, err)
	assert.Nil(t, got)

	raw := []byte(`{"field_paths": {"title": "fields.summary"}}`)
	require.NoError(t, s.PutProjectConfig(ctx, "PROJ", raw))

	got, err = s.GetProjectConfig(ctx, "PROJ")
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(got))

	// Overwrite replaces the stored document.
	raw2 := []byte(`{"field_paths": {"title": "fields.other"}}`)
	require.NoError(t, s.PutProjectConfig(ctx, "PROJ", raw2))

	got, err = s.GetProjectConfig(ctx, "PROJ")
	require.NoError(t, err)
	assert.JSONEq(t, string(raw2), string(got))
}
