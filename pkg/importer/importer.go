package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/halim/trackmind/internal/observability"
	"github.com/halim/trackmind/pkg/embedding"
	"github.com/halim/trackmind/pkg/mapping"
	"github.com/halim/trackmind/pkg/store"
	"github.com/halim/trackmind/pkg/tracker"
)

const (
	// EmbeddingVersion tags vectors written by this importer.
	EmbeddingVersion = "v1"

	// DefaultBatchSize is used when neither the options nor the project
	// config specify one.
	DefaultBatchSize = 50

	// DefaultMaxSyncResults bounds the single incremental sync query.
	DefaultMaxSyncResults = 100

	// defaultThrottleBackoff is used when a throttling error carries no
	// retry-after hint.
	defaultThrottleBackoff = 5 * time.Second
)

// ContentEmbedder pushes embeddable text into the embedding store.
// *embedding.Store satisfies it.
type ContentEmbedder interface {
	EmbedContent(ctx context.Context, req embedding.Request) (*embedding.Result, error)
}

// Importer pulls pages from the tracker, normalizes records through the
// mapping config, upserts them into the store and pushes their embeddable
// text into the embedding store. One logical worker per run; pages and items
// are processed strictly sequentially to respect the tracker's rate limits.
type Importer struct {
	tracker        tracker.Client
	mapping        *mapping.Manager
	store          *store.Store
	embedder       ContentEmbedder
	logger         zerolog.Logger
	maxSyncResults int

	// sleep is replaceable in tests; it must honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config holds importer configuration.
type Config struct {
	Tracker  tracker.Client
	Mapping  *mapping.Manager
	Store    *store.Store
	Embedder ContentEmbedder
	Logger   zerolog.Logger

	// MaxSyncResults bounds the incremental sync query; zero means
	// DefaultMaxSyncResults.
	MaxSyncResults int
}

// New creates a new importer.
func New(cfg Config) (*Importer, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("tracker client is required")
	}
	if cfg.Mapping == nil {
		return nil, errors.New("mapping manager is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.New("embedder is required")
	}

	maxSync := cfg.MaxSyncResults
	if maxSync <= 0 {
		maxSync = DefaultMaxSyncResults
	}

	observability.EnsureRegistered()

	return &Importer{
		tracker:        cfg.Tracker,
		mapping:        cfg.Mapping,
		store:          cfg.Store,
		embedder:       cfg.Embedder,
		logger:         cfg.Logger.With().Str("component", "importer").Logger(),
		maxSyncResults: maxSync,
		sleep:          sleepCtx,
	}, nil
}

// Options configures one full import run.
type Options struct {
	ProjectKey string

	// Categories selects which item categories to import; empty means
	// story-like and defect-like items.
	Categories []mapping.Category

	// BatchSize overrides the project config's page size when positive.
	BatchSize int
}

// Result summarizes one import or sync run.
type Result struct {
	JobID          string           `json:"job_id"`
	TotalProcessed int              `json:"total_processed"`
	PerCategory    map[string]int   `json:"per_category"`
	Errors         []store.JobError `json:"errors"`
}

// ImportProject runs a full paginated import of a project. Single-record and
// single-page failures are recorded on the job and never abort the run; only
// whole-job preconditions (config resolution) fail the job.
func (im *Importer) ImportProject(ctx context.Context, opts Options) (*Result, error) {
	if opts.ProjectKey == "" {
		return nil, errors.New("project key is required")
	}

	runID, _ := gonanoid.New(8)
	logger := im.logger.With().
		Str("run_id", runID).
		Str("project", opts.ProjectKey).
		Logger()

	job := &store.ImportJob{
		ID:         uuid.NewString(),
		Kind:       store.JobKindFull,
		ProjectKey: opts.ProjectKey,
		Status:     store.JobStatusPending,
		Metadata:   map[string]any{"run_id": runID},
	}
	if err := im.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if err := im.store.StartJob(ctx, job.ID); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{JobID: job.ID, PerCategory: make(map[string]int)}

	cfg, err := im.mapping.ProjectConfig(ctx, opts.ProjectKey)
	if err != nil {
		im.failJob(ctx, job.ID, err)
		observability.RecordJobFinished(string(store.JobKindFull), string(store.JobStatusFailed))
		return result, err
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = cfg.Import.BatchSize
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	delay := time.Duration(cfg.Import.DelayBetweenBatches) * time.Millisecond

	categories := opts.Categories
	if len(categories) == 0 {
		categories = []mapping.Category{mapping.CategoryUserStory, mapping.CategoryDefect}
	}

	var jobErrors []store.JobError
	processed := 0

	for _, category := range categories {
		if len(categoryTypes(category, cfg)) == 0 {
			jobErrors = append(jobErrors, newJobError(category, "", 0,
				fmt.Sprintf("no issue types configured for category %s", category)))
			observability.RecordImportError(opts.ProjectKey, "config")
			logger.Warn().Str("category", string(category)).Msg("Category has no configured issue types, skipping")
			continue
		}

		query := buildCategoryQuery(opts.ProjectKey, category, cfg)

		total, err := im.tracker.Count(ctx, query)
		if err != nil {
			jobErrors = append(jobErrors, newJobError(category, "", 0,
				fmt.Sprintf("failed to count %s records: %v", category, err)))
			observability.RecordImportError(opts.ProjectKey, "count")
			continue
		}

		logger.Info().
			Str("category", string(category)).
			Int("total", total).
			Msg("Importing category")

		for offset := 0; offset < total; offset += batchSize {
			// Cooperative cancellation, checked between pages.
			if ctx.Err() != nil {
				im.failJob(ctx, job.ID, ctx.Err())
				observability.RecordJobFinished(string(store.JobKindFull), string(store.JobStatusFailed))
				result.TotalProcessed = processed
				result.Errors = jobErrors
				return result, ctx.Err()
			}

			page := offset/batchSize + 1

			pageResult, err := im.fetchPage(ctx, logger, query, offset, batchSize)
			if err != nil {
				jobErrors = append(jobErrors, newJobError(category, "", page,
					fmt.Sprintf("page fetch failed: %v", err)))
				observability.RecordImportError(opts.ProjectKey, "page")
				logger.Warn().Err(err).Int("page", page).Msg("Page failed, continuing with next page")
				continue
			}

			for _, record := range pageResult.Items {
				item, embedErr, err := im.processRecord(ctx, cfg, record, true)
				if err != nil {
					externalID := mapping.MapFieldString(record, recordKeyPath(cfg))
					jobErrors = append(jobErrors, newJobError(category, externalID, page, err.Error()))
					observability.RecordImportError(opts.ProjectKey, "record")
					logger.Warn().Err(err).Str("external_id", externalID).Msg("Record failed, continuing")
					continue
				}
				if embedErr != nil {
					jobErrors = append(jobErrors, newJobError(category, item.ExternalID, page, embedErr.Error()))
					observability.RecordImportError(opts.ProjectKey, "embedding")
				}

				processed++
				result.PerCategory[item.Category]++
				observability.RecordItemImported(opts.ProjectKey, item.Category)
			}

			if err := im.store.UpdateJobProgress(ctx, job.ID, processed); err != nil {
				logger.Warn().Err(err).Msg("Failed to update job progress")
			}

			// Fixed-delay pacing between pages, not adaptive.
			if offset+batchSize < total && delay > 0 {
				if err := im.sleep(ctx, delay); err != nil {
					im.failJob(ctx, job.ID, err)
					observability.RecordJobFinished(string(store.JobKindFull), string(store.JobStatusFailed))
					result.TotalProcessed = processed
					result.Errors = jobErrors
					return result, err
				}
			}
		}
	}

	status := store.JobStatusCompleted
	if len(jobErrors) > 0 {
		status = store.JobStatusCompletedWithErrors
	}
	if err := im.store.FinishJob(ctx, job.ID, status, processed, jobErrors); err != nil {
		logger.Warn().Err(err).Msg("Failed to finish job")
	}

	observability.RecordJobFinished(string(store.JobKindFull), string(status))
	observability.RecordImportRun(string(store.JobKindFull), time.Since(start))

	result.TotalProcessed = processed
	result.Errors = jobErrors

	logger.Info().
		Str("job_id", job.ID).
		Str("status", string(status)).
		Int("processed", processed).
		Int("errors", len(jobErrors)).
		Dur("duration", time.Since(start)).
		Msg("Import completed")

	return result, nil
}

// fetchPage fetches one page, retrying exactly once on a throttling error
// using the server-provided backoff hint.
func (im *Importer) fetchPage(ctx context.Context, logger zerolog.Logger, query string, offset, size int) (*tracker.SearchResult, error) {
	page, err := im.tracker.Search(ctx, query, offset, size)

	var throttled *tracker.ThrottledError
	if !errors.As(err, &throttled) {
		return page, err
	}

	wait := throttled.RetryAfter
	if wait <= 0 {
		wait = defaultThrottleBackoff
	}

	logger.Warn().
		Dur("retry_after", wait).
		Int("offset", offset).
		Msg("Tracker throttled, retrying page once")

	if err := im.sleep(ctx, wait); err != nil {
		return nil, err
	}

	return im.tracker.Search(ctx, query, offset, size)
}

// failJob marks a job failed with a single whole-job error. Final writes use
// a detached context so cancellation cannot lose the terminal state.
func (im *Importer) failJob(ctx context.Context, jobID string, cause error) {
	finishCtx := context.WithoutCancel(ctx)
	jobErr := []store.JobError{newJobError("", "", 0, cause.Error())}
	if err := im.store.FinishJob(finishCtx, jobID, store.JobStatusFailed, 0, jobErr); err != nil {
		im.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to mark job failed")
	}
}

// categoryTypes returns the configured issue types for one item category.
func categoryTypes(category mapping.Category, cfg *mapping.ProjectConfig) []string {
	switch category {
	case mapping.CategoryUserStory:
		return cfg.IssueTypes.UserStory
	case mapping.CategoryDefect:
		return cfg.IssueTypes.Defect
	case mapping.CategoryEpic:
		return cfg.IssueTypes.Epic
	case mapping.CategoryTask:
		return cfg.IssueTypes.Task
	}
	return nil
}

// buildCategoryQuery assembles the tracker query for one item category.
func buildCategoryQuery(projectKey string, category mapping.Category, cfg *mapping.ProjectConfig) string {
	types := categoryTypes(category, cfg)

	query := fmt.Sprintf("project = %q", projectKey)

	if len(types) > 0 {
		quoted := make([]string, len(types))
		for i, t := range types {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		query += fmt.Sprintf(" AND issuetype in (%s)", strings.Join(quoted, ", "))
	}

	if filter := cfg.Filters[string(category)]; filter != "" {
		query += fmt.Sprintf(" AND (%s)", filter)
	}

	return query + " ORDER BY created ASC"
}

func newJobError(category mapping.Category, externalID string, page int, message string) store.JobError {
	id, _ := gonanoid.New(10)
	return store.JobError{
		ID:         id,
		Category:   string(category),
		ExternalID: externalID,
		Page:       page,
		Message:    message,
	}
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
