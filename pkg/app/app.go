package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halim/trackmind/internal/config"
	"github.com/halim/trackmind/internal/logger"
	"github.com/halim/trackmind/internal/observability"
	"github.com/halim/trackmind/pkg/embedding"
	"github.com/halim/trackmind/pkg/importer"
	"github.com/halim/trackmind/pkg/mapping"
	"github.com/halim/trackmind/pkg/scheduler"
	"github.com/halim/trackmind/pkg/search"
	"github.com/halim/trackmind/pkg/store"
	"github.com/halim/trackmind/pkg/tracker"
)

// App wires the configuration, logger and all services into one runnable
// unit. The surrounding surface (CLI, HTTP) builds an App and drives the
// importer, searcher and scheduler through it.
type App struct {
	cfg *config.Config
	log *logger.Logger

	store     *store.Store
	overlay   *mapping.PresetOverlay
	mapping   *mapping.Manager
	tracker   tracker.Client
	provider  embedding.Provider
	embedder  *embedding.Store
	searcher  *search.Searcher
	importer  *importer.Importer
	scheduler *scheduler.Scheduler
}

// Load reads the configuration file at configPath (empty means the default
// location), validates it and assembles the application.
func Load(configPath string) (*App, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New assembles the application from an already-loaded configuration,
// initializing services in dependency order.
func New(cfg *config.Config) (*App, error) {
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	observability.EnsureRegistered()

	a := &App{cfg: cfg, log: log}
	if err := a.initServices(); err != nil {
		log.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) initServices() error {
	st, err := store.Open(store.Config{
		Path:   a.cfg.DBPath,
		Logger: a.log.Component("store"),
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = st

	overlay, err := mapping.NewPresetOverlay(a.cfg.PresetDir, a.log.Zerolog())
	if err != nil {
		return fmt.Errorf("failed to load preset overlays: %w", err)
	}
	a.overlay = overlay

	mgr, err := mapping.NewManager(mapping.ManagerConfig{
		Store:    st,
		Overlays: overlay,
		Logger:   a.log.Zerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create mapping manager: %w", err)
	}
	a.mapping = mgr

	a.tracker = tracker.NewJiraClient(tracker.JiraConfig{
		BaseURL:    a.cfg.Tracker.BaseURL,
		Credential: a.cfg.Tracker.Credential,
		Timeout:    time.Duration(a.cfg.Tracker.Timeout) * time.Second,
		Logger:     a.log.Component("tracker"),
	})

	provider, err := buildProvider(a.cfg.Embedding, a.log.Zerolog())
	if err != nil {
		return err
	}
	a.provider = provider

	embedder, err := embedding.NewStore(embedding.Config{
		Store:    st,
		Provider: provider,
		Logger:   a.log.Zerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create embedding store: %w", err)
	}
	a.embedder = embedder

	searcher, err := search.NewSearcher(search.Config{
		Store:    st,
		Provider: provider,
		Logger:   a.log.Zerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	a.searcher = searcher

	imp, err := importer.New(importer.Config{
		Tracker:        a.tracker,
		Mapping:        mgr,
		Store:          st,
		Embedder:       embedder,
		Logger:         a.log.Zerolog(),
		MaxSyncResults: a.cfg.Import.MaxSyncResults,
	})
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}
	a.importer = imp

	sched, err := scheduler.New(scheduler.Config{
		Runner:  imp,
		History: st,
		Logger:  a.log.Zerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	a.scheduler = sched

	return nil
}

// buildProvider constructs the embedding provider named by the
// configuration, wrapping it with the deterministic hash fallback when
// enabled.
func buildProvider(cfg config.EmbeddingConfig, log zerolog.Logger) (embedding.Provider, error) {
	var primary embedding.Provider
	switch cfg.Provider {
	case "hash":
		return embedding.NewHashProvider(cfg.Dimension), nil
	case "openai", "":
		primary = embedding.NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if !cfg.Fallback {
		return primary, nil
	}
	return embedding.NewFallbackProvider(primary, embedding.NewHashProvider(cfg.Dimension), log)
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns a component-tagged logger for the surrounding surface.
func (a *App) Logger(component string) zerolog.Logger { return a.log.Component(component) }

// Store returns the persistence layer.
func (a *App) Store() *store.Store { return a.store }

// Mapping returns the mapping manager.
func (a *App) Mapping() *mapping.Manager { return a.mapping }

// Tracker returns the tracker client.
func (a *App) Tracker() tracker.Client { return a.tracker }

// Embedder returns the embedding store.
func (a *App) Embedder() *embedding.Store { return a.embedder }

// Searcher returns the similarity searcher.
func (a *App) Searcher() *search.Searcher { return a.searcher }

// Importer returns the importer.
func (a *App) Importer() *importer.Importer { return a.importer }

// Scheduler returns the sync scheduler.
func (a *App) Scheduler() *scheduler.Scheduler { return a.scheduler }

// Close shuts the application down in reverse dependency order.
func (a *App) Close() error {
	var firstErr error

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.overlay != nil {
		if err := a.overlay.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.log != nil {
		if err := a.log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
