package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TrackedItem is the normalized, locally persisted representation of one
// externally sourced record. (ExternalID, Category) is the natural key.
// CreatedAt and UpdatedAt come from the source timestamps, not the wall
// clock at import time.
type TrackedItem struct {
	ExternalID         string    `json:"external_id"`
	Category           string    `json:"category"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Status             string    `json:"status"`
	Priority           string    `json:"priority"`
	Component          string    `json:"component"`
	Assignee           string    `json:"assignee"`
	Reporter           string    `json:"reporter"`
	AcceptanceCriteria string    `json:"acceptance_criteria"`
	SourceCreatedAt    time.Time `json:"source_created_at"`
	SourceUpdatedAt    time.Time `json:"source_updated_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpsertItem inserts or updates a tracked item by its natural key. Inserts
// set created_at from the source created timestamp; updates overwrite the
// mutable fields and leave created_at untouched, so re-importing an unchanged
// item is idempotent.
func (s *Store) UpsertItem(ctx context.Context, item *TrackedItem) error {
	if item.ExternalID == "" {
		return errors.New("external id is required")
	}
	if item.Category == "" {
		return errors.New("category is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_items (
			external_id, category, title, description, status, priority,
			component, assignee, reporter, acceptance_criteria,
			source_created_at, source_updated_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id, category) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			component = excluded.component,
			assignee = excluded.assignee,
			reporter = excluded.reporter,
			acceptance_criteria = excluded.acceptance_criteria,
			source_updated_at = excluded.source_updated_at,
			updated_at = excluded.updated_at
	`,
		item.ExternalID, item.Category, item.Title, item.Description,
		item.Status, item.Priority, item.Component, item.Assignee,
		item.Reporter, item.AcceptanceCriteria,
		item.SourceCreatedAt.Unix(), item.SourceUpdatedAt.Unix(),
		item.SourceCreatedAt.Unix(), item.SourceUpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ExternalID, err)
	}

	return nil
}

// GetItem returns a tracked item by its natural key, or nil if absent.
func (s *Store) GetItem(ctx context.Context, externalID, category string) (*TrackedItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT external_id, category, title, description, status, priority,
		       component, assignee, reporter, acceptance_criteria,
		       source_created_at, source_updated_at, created_at, updated_at
		FROM tracked_items
		WHERE external_id = ? AND category = ?
	`, externalID, category)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", externalID, err)
	}
	return item, nil
}

// ListItems returns all tracked items ordered by external id.
func (s *Store) ListItems(ctx context.Context) ([]TrackedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, category, title, description, status, priority,
		       component, assignee, reporter, acceptance_criteria,
		       source_created_at, source_updated_at, created_at, updated_at
		FROM tracked_items
		ORDER BY external_id, category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []TrackedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CountItems returns the total number of tracked items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracked_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*TrackedItem, error) {
	var item TrackedItem
	var sourceCreated, sourceUpdated, created, updated int64

	err := row.Scan(
		&item.ExternalID, &item.Category, &item.Title, &item.Description,
		&item.Status, &item.Priority, &item.Component, &item.Assignee,
		&item.Reporter, &item.AcceptanceCriteria,
		&sourceCreated, &sourceUpdated, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	item.SourceCreatedAt = time.Unix(sourceCreated, 0).UTC()
	item.SourceUpdatedAt = time.Unix(sourceUpdated, 0).UTC()
	item.CreatedAt = time.Unix(created, 0).UTC()
	item.UpdatedAt = time.Unix(updated, 0).UTC()

	return &item, nil
}
