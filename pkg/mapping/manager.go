package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrConfigurationMissing is returned when no project config is resolvable,
// not even from a built-in preset. It aborts the whole import run.
var ErrConfigurationMissing = errors.New("no project configuration resolvable")

// ConfigStore persists project configs as raw JSON documents. A nil document
// with a nil error means no config is persisted for the key.
type ConfigStore interface {
	GetProjectConfig(ctx context.Context, projectKey string) ([]byte, error)
	PutProjectConfig(ctx context.Context, projectKey string, raw []byte) error
}

// Manager resolves and persists per-project mapping configuration.
type Manager struct {
	store    ConfigStore
	overlays *PresetOverlay
	preset   string
	logger   zerolog.Logger
}

// ManagerConfig holds mapping manager configuration.
type ManagerConfig struct {
	Store ConfigStore

	// Overlays is an optional registry of custom preset files; nil disables
	// overlays.
	Overlays *PresetOverlay

	// DefaultPreset names the preset synthesized when a project has no
	// persisted config; empty means DefaultPreset.
	DefaultPreset string

	Logger zerolog.Logger
}

// NewManager creates a new mapping manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("config store is required")
	}

	preset := cfg.DefaultPreset
	if preset == "" {
		preset = DefaultPreset
	}

	return &Manager{
		store:    cfg.Store,
		overlays: cfg.Overlays,
		preset:   preset,
		logger:   cfg.Logger.With().Str("component", "mapping").Logger(),
	}, nil
}

// ProjectConfig returns the persisted config for a project, or synthesizes one
// from the configured preset. Overlay presets shadow built-in ones. The result
// is a private copy; config edits never affect a run in flight.
func (m *Manager) ProjectConfig(ctx context.Context, projectKey string) (*ProjectConfig, error) {
	raw, err := m.store.GetProjectConfig(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if raw != nil {
		var cfg ProjectConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse persisted config for %s: %w", projectKey, err)
		}
		cfg.ProjectKey = projectKey
		return &cfg, nil
	}

	if m.overlays != nil {
		if cfg, ok := m.overlays.Preset(m.preset); ok {
			m.logger.Debug().
				Str("project", projectKey).
				Str("preset", m.preset).
				Msg("Synthesized config from overlay preset")
			cfg.ProjectKey = projectKey
			return cfg, nil
		}
	}

	if cfg, ok := Preset(m.preset); ok {
		m.logger.Debug().
			Str("project", projectKey).
			Str("preset", m.preset).
			Msg("Synthesized config from built-in preset")
		cfg.ProjectKey = projectKey
		return cfg, nil
	}

	return nil, fmt.Errorf("%w: project %s, preset %s", ErrConfigurationMissing, projectKey, m.preset)
}

// SaveProjectConfig validates a config against the JSON schema and persists
// it. The saved config applies to subsequent runs only.
func (m *Manager) SaveProjectConfig(ctx context.Context, projectKey string, cfg *ProjectConfig) error {
	cfg = cfg.Clone()
	cfg.ProjectKey = projectKey

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}

	if err := ValidateConfigJSON(raw); err != nil {
		return err
	}

	if err := m.store.PutProjectConfig(ctx, projectKey, raw); err != nil {
		return fmt.Errorf("failed to persist project config: %w", err)
	}

	m.logger.Info().Str("project", projectKey).Msg("Project config saved")
	return nil
}
