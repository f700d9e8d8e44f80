package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/halim/trackmind/pkg/importer"
	"github.com/halim/trackmind/pkg/store"
)

// DefaultSchedule runs incremental syncs every 15 minutes.
const DefaultSchedule = "*/15 * * * *"

// SyncRunner is the subset of the importer the scheduler drives.
// *importer.Importer satisfies it.
type SyncRunner interface {
	ImportProject(ctx context.Context, opts importer.Options) (*importer.Result, error)
	SyncUpdatedIssues(ctx context.Context, projectKey string, since time.Time) (*importer.Result, error)
}

// SyncHistory looks up the watermark for incremental syncs.
// *store.Store satisfies it.
type SyncHistory interface {
	LastCompletedSync(ctx context.Context, projectKey string) (*time.Time, error)
}

// Scheduler runs periodic incremental syncs for registered projects. Each
// project gets its own cron entry; a run that is still in flight when the
// next tick fires is skipped, never queued.
type Scheduler struct {
	runner  SyncRunner
	history SyncHistory
	logger  zerolog.Logger
	cron    *cron.Cron

	mu      sync.Mutex
	running map[string]bool
	entries map[string]cron.EntryID
}

// Config holds scheduler configuration.
type Config struct {
	Runner  SyncRunner
	History SyncHistory
	Logger  zerolog.Logger
}

// New creates a new scheduler. Call Start to begin ticking.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Runner == nil {
		return nil, errors.New("sync runner is required")
	}
	if cfg.History == nil {
		return nil, errors.New("sync history is required")
	}

	return &Scheduler{
		runner:  cfg.Runner,
		history: cfg.History,
		logger:  cfg.Logger.With().Str("component", "scheduler").Logger(),
		cron:    cron.New(),
		running: make(map[string]bool),
		entries: make(map[string]cron.EntryID),
	}, nil
}

// AddProject registers a project for periodic syncing. An empty schedule
// means DefaultSchedule. Registering a project twice replaces its schedule.
func (s *Scheduler) AddProject(projectKey, schedule string) error {
	if projectKey == "" {
		return errors.New("project key is required")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[projectKey]; ok {
		s.cron.Remove(id)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		s.RunOnce(context.Background(), projectKey)
	})
	if err != nil {
		return err
	}
	s.entries[projectKey] = id

	s.logger.Info().
		Str("project", projectKey).
		Str("schedule", schedule).
		Msg("Project scheduled for periodic sync")

	return nil
}

// RemoveProject unregisters a project. A sync already in flight finishes.
func (s *Scheduler) RemoveProject(projectKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[projectKey]; ok {
		s.cron.Remove(id)
		delete(s.entries, projectKey)
	}
}

// Start begins firing scheduled syncs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

// Stop stops scheduling and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunOnce performs one sync for a project immediately. If the project was
// never synced before, it falls back to a full import to seed the store.
// Returns without doing anything when a run for the same project is already
// in flight.
func (s *Scheduler) RunOnce(ctx context.Context, projectKey string) {
	if !s.tryAcquire(projectKey) {
		s.logger.Warn().
			Str("project", projectKey).
			Msg("Previous sync still running, skipping this tick")
		return
	}
	defer s.release(projectKey)

	since, err := s.history.LastCompletedSync(ctx, projectKey)
	if err != nil {
		s.logger.Error().Err(err).
			Str("project", projectKey).
			Msg("Failed to look up last sync time")
		return
	}

	if since == nil {
		s.logger.Info().
			Str("project", projectKey).
			Msg("No previous sync found, running full import instead")
		if _, err := s.runner.ImportProject(ctx, importer.Options{ProjectKey: projectKey}); err != nil {
			s.logger.Error().Err(err).
				Str("project", projectKey).
				Msg("Scheduled full import failed")
		}
		return
	}

	if _, err := s.runner.SyncUpdatedIssues(ctx, projectKey, *since); err != nil {
		s.logger.Error().Err(err).
			Str("project", projectKey).
			Msg("Scheduled sync failed")
	}
}

func (s *Scheduler) tryAcquire(projectKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running[projectKey] {
		return false
	}
	s.running[projectKey] = true
	return true
}

func (s *Scheduler) release(projectKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, projectKey)
}

var _ SyncHistory = (*store.Store)(nil)
