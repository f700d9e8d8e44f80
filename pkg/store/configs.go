package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetProjectConfig returns the persisted raw config document for a project,
// or nil if none exists.
func (s *Store) GetProjectConfig(ctx context.Context, projectKey string) ([]byte, error) {
	var config string
	err := s.db.QueryRowContext(ctx,
		"SELECT config FROM project_configs WHERE project_key = ?", projectKey).Scan(&config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project config %s: %w", projectKey, err)
	}
	return []byte(config), nil
}

// PutProjectConfig inserts or replaces the raw config document for a project.
func (s *Store) PutProjectConfig(ctx context.Context, projectKey string, raw []byte) error {
	if projectKey == "" {
		return errors.New("project key is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_configs (project_key, config, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(project_key) DO UPDATE SET
			config = excluded.config,
			updated_at = excluded.updated_at
	`, projectKey, string(raw), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to persist project config %s: %w", projectKey, err)
	}

	return nil
}
