package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halim/trackmind/internal/config"
	"github.com/halim/trackmind/pkg/embedding"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Tracker.BaseURL = "http://jira.example.com"
	cfg.Tracker.Credential = "token"
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.Dimension = 64
	cfg.DataDir = dir
	cfg.DBPath = filepath.Join(dir, "test.db")
	cfg.PresetDir = filepath.Join(dir, "presets")
	cfg.Logging.Level = "error"
	cfg.Logging.Console = false
	cfg.Logging.File = filepath.Join(dir, "test.log")
	return cfg
}

func createTestApp(t *testing.T) *App {
	t.Helper()

	a, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func TestNew(t *testing.T) {
	t.Run("assembles all services", func(t *testing.T) {
		a := createTestApp(t)

		assert.NotNil(t, a.Store())
		assert.NotNil(t, a.Mapping())
		assert.NotNil(t, a.Tracker())
		assert.NotNil(t, a.Embedder())
		assert.NotNil(t, a.Searcher())
		assert.NotNil(t, a.Importer())
		assert.NotNil(t, a.Scheduler())
		assert.Equal(t, "hash", a.Config().Embedding.Provider)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Embedding.Dimension = 0

		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("rejects unknown embedding provider", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Embedding.Provider = "quantum"
		cfg.Embedding.APIKey = "token"

		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown embedding provider")
	})
}

func TestAppWiring(t *testing.T) {
	t.Run("mapping manager reads and writes through the store", func(t *testing.T) {
		a := createTestApp(t)
		ctx := context.Background()

		cfg, err := a.Mapping().ProjectConfig(ctx, "PROJ")
		require.NoError(t, err)

		require.NoError(t, a.Mapping().SaveProjectConfig(ctx, "PROJ", cfg))

		raw, err := a.Store().GetProjectConfig(ctx, "PROJ")
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
	})

	t.Run("scheduler accepts projects", func(t *testing.T) {
		a := createTestApp(t)

		require.NoError(t, a.Scheduler().AddProject("PROJ", ""))
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads from a config file", func(t *testing.T) {
		dir := t.TempDir()
		cfg := testConfig(t)
		path := filepath.Join(dir, "trackmind.json")

		raw, err := json.Marshal(cfg)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, raw, 0644))

		a, err := Load(path)
		require.NoError(t, err)
		defer a.Close()

		assert.Equal(t, "hash", a.Config().Embedding.Provider)
		assert.Equal(t, cfg.DBPath, a.Config().DBPath)
	})

	t.Run("fails on an unreadable file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "trackmind.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestBuildProvider(t *testing.T) {
	log := zerolog.Nop()

	t.Run("hash", func(t *testing.T) {
		p, err := buildProvider(config.EmbeddingConfig{Provider: "hash", Dimension: 64}, log)
		require.NoError(t, err)
		assert.IsType(t, &embedding.HashProvider{}, p)
		assert.Equal(t, 64, p.Dimension())
	})

	t.Run("openai without fallback", func(t *testing.T) {
		p, err := buildProvider(config.EmbeddingConfig{
			Provider: "openai", APIKey: "sk-test", Dimension: 1536,
		}, log)
		require.NoError(t, err)
		assert.IsType(t, &embedding.OpenAIProvider{}, p)
	})

	t.Run("openai with fallback", func(t *testing.T) {
		p, err := buildProvider(config.EmbeddingConfig{
			Provider: "openai", APIKey: "sk-test", Dimension: 1536, Fallback: true,
		}, log)
		require.NoError(t, err)
		assert.IsType(t, &embedding.FallbackProvider{}, p)
	})
}
