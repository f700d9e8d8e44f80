package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JobKind distinguishes full imports from incremental syncs.
type JobKind string

const (
	JobKindFull        JobKind = "full"
	JobKindIncremental JobKind = "incremental"
)

// JobStatus is the lifecycle state of an import job.
type JobStatus string

const (
	JobStatusPending             JobStatus = "pending"
	JobStatusInProgress          JobStatus = "in_progress"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
	JobStatusFailed              JobStatus = "failed"
)

// terminal reports whether a status is a terminal state.
func (s JobStatus) terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCompletedWithErrors, JobStatusFailed:
		return true
	}
	return false
}

// JobError records one failed record or page within a run.
type JobError struct {
	ID         string `json:"id"`
	Category   string `json:"category,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	Message    string `json:"message"`
}

// ImportJob is the bookkeeping record of one batch or sync run.
type ImportJob struct {
	ID             string         `json:"id"`
	Kind           JobKind        `json:"kind"`
	ProjectKey     string         `json:"project_key"`
	Status         JobStatus      `json:"status"`
	ProcessedItems int            `json:"processed_items"`
	Errors         []JobError     `json:"errors"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// CreateJob persists a new job.
func (s *Store) CreateJob(ctx context.Context, job *ImportJob) error {
	if job.ID == "" {
		return errors.New("job id is required")
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	errorsJSON, err := json.Marshal(emptyIfNil(job.Errors))
	if err != nil {
		return fmt.Errorf("failed to marshal job errors: %w", err)
	}
	metadataJSON, err := json.Marshal(emptyMapIfNil(job.Metadata))
	if err != nil {
		return fmt.Errorf("failed to marshal job metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_jobs (id, kind, project_key, status, processed_items, errors, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, string(job.Kind), job.ProjectKey, string(job.Status),
		job.ProcessedItems, string(errorsJSON), string(metadataJSON), job.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// StartJob moves a pending job to in_progress.
func (s *Store) StartJob(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs SET status = ? WHERE id = ? AND status = ?
	`, string(JobStatusInProgress), id, string(JobStatusPending))
	if err != nil {
		return fmt.Errorf("failed to start job %s: %w", id, err)
	}
	return nil
}

// UpdateJobProgress records the running processed-items count.
func (s *Store) UpdateJobProgress(ctx context.Context, id string, processed int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs SET processed_items = ? WHERE id = ?
	`, processed, id)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// FinishJob sets a job's terminal state exactly once. Finishing an already
// terminal job is an error.
func (s *Store) FinishJob(ctx context.Context, id string, status JobStatus, processed int, jobErrors []JobError) error {
	if !status.terminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	errorsJSON, err := json.Marshal(emptyIfNil(jobErrors))
	if err != nil {
		return fmt.Errorf("failed to marshal job errors: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET status = ?, processed_items = ?, errors = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, string(status), processed, string(errorsJSON), time.Now().UTC().Unix(),
		id, string(JobStatusPending), string(JobStatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s is already in a terminal state", id)
	}

	return nil
}

// GetJob returns a job by id, or nil if absent.
func (s *Store) GetJob(ctx context.Context, id string) (*ImportJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, project_key, status, processed_items, errors, metadata, created_at, completed_at
		FROM import_jobs WHERE id = ?
	`, id)

	var job ImportJob
	var kind, status, errorsJSON, metadataJSON string
	var createdAt int64
	var completedAt sql.NullInt64

	err := row.Scan(&job.ID, &kind, &job.ProjectKey, &status,
		&job.ProcessedItems, &errorsJSON, &metadataJSON, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	job.Kind = JobKind(kind)
	job.Status = JobStatus(status)
	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		job.CompletedAt = &t
	}

	if err := json.Unmarshal([]byte(errorsJSON), &job.Errors); err != nil {
		return nil, fmt.Errorf("failed to parse job errors: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &job.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse job metadata: %w", err)
	}

	return &job, nil
}

// LastCompletedSync returns the completion time of the most recent successful
// run (completed or completed_with_errors) for a project, or nil when the
// project has never been synced.
func (s *Store) LastCompletedSync(ctx context.Context, projectKey string) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT MAX(completed_at) FROM import_jobs
		WHERE project_key = ? AND status IN (?, ?)
	`, projectKey, string(JobStatusCompleted), string(JobStatusCompletedWithErrors))

	var completedAt sql.NullInt64
	if err := row.Scan(&completedAt); err != nil {
		return nil, fmt.Errorf("failed to query last sync: %w", err)
	}
	if !completedAt.Valid {
		return nil, nil
	}

	t := time.Unix(completedAt.Int64, 0).UTC()
	return &t, nil
}

func emptyIfNil(errs []JobError) []JobError {
	if errs == nil {
		return []JobError{}
	}
	return errs
}

func emptyMapIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
