package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/halim/trackmind/internal/observability"
	"github.com/halim/trackmind/pkg/mapping"
	"github.com/halim/trackmind/pkg/store"
)

// SyncUpdatedIssues runs one bounded incremental sync: a single updated-since
// query against the tracker, routing story-like and defect-like records
// through the same normalize/upsert/embed path as a full import. Records of
// other categories are skipped. The query is capped at the configured max; a
// backlog larger than that is caught up by subsequent runs.
func (im *Importer) SyncUpdatedIssues(ctx context.Context, projectKey string, since time.Time) (*Result, error) {
	if projectKey == "" {
		return nil, errors.New("project key is required")
	}

	runID, _ := gonanoid.New(8)
	logger := im.logger.With().
		Str("run_id", runID).
		Str("project", projectKey).
		Time("since", since).
		Logger()

	job := &store.ImportJob{
		ID:         uuid.NewString(),
		Kind:       store.JobKindIncremental,
		ProjectKey: projectKey,
		Status:     store.JobStatusPending,
		Metadata:   map[string]any{"run_id": runID, "since": since.UTC().Format(time.RFC3339)},
	}
	if err := im.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if err := im.store.StartJob(ctx, job.ID); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{JobID: job.ID, PerCategory: make(map[string]int)}

	cfg, err := im.mapping.ProjectConfig(ctx, projectKey)
	if err != nil {
		im.failJob(ctx, job.ID, err)
		observability.RecordJobFinished(string(store.JobKindIncremental), string(store.JobStatusFailed))
		return result, err
	}

	var jobErrors []store.JobError
	processed := 0
	skipped := 0

	page, err := im.tracker.GetUpdatedSince(ctx, projectKey, since, 0, im.maxSyncResults)
	if err != nil {
		jobErrors = append(jobErrors, newJobError("", "", 1,
			fmt.Sprintf("updated-since query failed: %v", err)))
		observability.RecordImportError(projectKey, "page")
	} else {
		if page.Total > im.maxSyncResults {
			logger.Warn().
				Int("total", page.Total).
				Int("max", im.maxSyncResults).
				Msg("More updates than sync cap, remainder deferred to next run")
		}

		for _, record := range page.Items {
			rawType := mapping.MapFieldString(record, cfg.FieldPaths["issue_type"])
			category := mapping.CategorizeIssueType(rawType, cfg)
			if category != mapping.CategoryUserStory && category != mapping.CategoryDefect {
				skipped++
				continue
			}

			item, embedErr, err := im.processRecord(ctx, cfg, record, true)
			if err != nil {
				externalID := mapping.MapFieldString(record, recordKeyPath(cfg))
				jobErrors = append(jobErrors, newJobError(category, externalID, 1, err.Error()))
				observability.RecordImportError(projectKey, "record")
				logger.Warn().Err(err).Str("external_id", externalID).Msg("Record failed, continuing")
				continue
			}
			if embedErr != nil {
				jobErrors = append(jobErrors, newJobError(category, item.ExternalID, 1, embedErr.Error()))
				observability.RecordImportError(projectKey, "embedding")
			}

			processed++
			result.PerCategory[item.Category]++
			observability.RecordItemImported(projectKey, item.Category)
		}
	}

	status := store.JobStatusCompleted
	if len(jobErrors) > 0 {
		status = store.JobStatusCompletedWithErrors
	}
	if err := im.store.FinishJob(ctx, job.ID, status, processed, jobErrors); err != nil {
		logger.Warn().Err(err).Msg("Failed to finish job")
	}

	observability.RecordJobFinished(string(store.JobKindIncremental), string(status))
	observability.RecordImportRun(string(store.JobKindIncremental), time.Since(start))

	result.TotalProcessed = processed
	result.Errors = jobErrors

	logger.Info().
		Str("job_id", job.ID).
		Str("status", string(status)).
		Int("processed", processed).
		Int("skipped", skipped).
		Int("errors", len(jobErrors)).
		Msg("Incremental sync completed")

	return result, nil
}
