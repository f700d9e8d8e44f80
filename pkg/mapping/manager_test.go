package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memConfigStore is an in-memory ConfigStore for tests.
type memConfigStore struct {
	configs map[string][]byte
	getErr  error
}

func newMemConfigStore() *memConfigStore {
	return &memConfigStore{configs: make(map[string][]byte)}
}

func (s *memConfigStore) GetProjectConfig(ctx context.Context, projectKey string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.configs[projectKey], nil
}

func (s *memConfigStore) PutProjectConfig(ctx context.Context, projectKey string, raw []byte) error {
	s.configs[projectKey] = raw
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).Level(zerolog.Disabled)
}

func createTestManager(t *testing.T, store ConfigStore) *Manager {
	m, err := NewManager(ManagerConfig{
		Store:  store,
		Logger: testLogger(),
	})
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresStore(t *testing.T) {
	m, err := NewManager(ManagerConfig{Logger: testLogger()})
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestProjectConfig_FallsBackToPreset(t *testing.T) {
	m := createTestManager(t, newMemConfigStore())

	cfg, err := m.ProjectConfig(context.Background(), "PROJ")
	require.NoError(t, err)

	assert.Equal(t, "PROJ", cfg.ProjectKey)
	assert.Equal(t, "cloud", cfg.Preset)
	assert.Equal(t, "fields.summary", cfg.FieldPaths["title"])
}

func TestProjectConfig_PersistedWinsOverPreset(t *testing.T) {
	store := newMemConfigStore()
	m := createTestManager(t, store)

	custom := cloudConfig(t)
	custom.FieldPaths["title"] = "fields.custom_summary"
	require.NoError(t, m.SaveProjectConfig(context.Background(), "PROJ", custom))

	cfg, err := m.ProjectConfig(context.Background(), "PROJ")
	require.NoError(t, err)
	assert.Equal(t, "fields.custom_summary", cfg.FieldPaths["title"])

	// Other projects still resolve the preset.
	other, err := m.ProjectConfig(context.Background(), "OTHER")
	require.NoError(t, err)
	assert.Equal(t, "fields.summary", other.FieldPaths["title"])
}

func TestProjectConfig_UnknownPreset(t *testing.T) {
	m, err := NewManager(ManagerConfig{
		Store:         newMemConfigStore(),
		DefaultPreset: "does-not-exist",
		Logger:        testLogger(),
	})
	require.NoError(t, err)

	_, err = m.ProjectConfig(context.Background(), "PROJ")
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestProjectConfig_StoreError(t *testing.T) {
	store := newMemConfigStore()
	store.getErr = errors.New("disk on fire")
	m := createTestManager(t, store)

	_, err := m.ProjectConfig(context.Background(), "PROJ")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigurationMissing)
}

func TestProjectConfig_CorruptPersistedConfig(t *testing.T) {
	store := newMemConfigStore()
	store.configs["PROJ"] = []byte("{not json")
	m := createTestManager(t, store)

	_, err := m.ProjectConfig(context.Background(), "PROJ")
	assert.Error(t, err)
}

func TestSaveProjectConfig_RejectsInvalid(t *testing.T) {
	store := newMemConfigStore()
	m := createTestManager(t, store)

	bad := cloudConfig(t)
	bad.FieldPaths = nil

	err := m.SaveProjectConfig(context.Background(), "PROJ", bad)
	assert.Error(t, err)
	assert.Empty(t, store.configs)
}

func TestSaveProjectConfig_DoesNotMutateInput(t *testing.T) {
	m := createTestManager(t, newMemConfigStore())

	cfg := cloudConfig(t)
	cfg.ProjectKey = ""
	require.NoError(t, m.SaveProjectConfig(context.Background(), "PROJ", cfg))

	assert.Equal(t, "", cfg.ProjectKey)
}

func TestProjectConfig_OverlayShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()

	overlayCfg := cloudConfig(t)
	overlayCfg.FieldPaths["title"] = "fields.overlay_summary"
	raw, err := json.Marshal(overlayCfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dir+"/cloud.json", raw, 0644))

	overlay, err := NewPresetOverlay(dir, testLogger())
	require.NoError(t, err)
	defer overlay.Stop()

	m, err := NewManager(ManagerConfig{
		Store:    newMemConfigStore(),
		Overlays: overlay,
		Logger:   testLogger(),
	})
	require.NoError(t, err)

	cfg, err := m.ProjectConfig(context.Background(), "PROJ")
	require.NoError(t, err)
	assert.Equal(t, "fields.overlay_summary", cfg.FieldPaths["title"])
}
