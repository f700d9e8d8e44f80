package store

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// Store is the single source of truth for project configs, import jobs,
// tracked items and embeddings. All mutations are single-row upserts; the
// store never spans a transaction across tables.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Config holds store configuration
type Config struct {
	Path   string
	Logger zerolog.Logger
}

// Open opens (and if necessary creates) the store database.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{
		db:     db,
		logger: cfg.Logger.With().Str("component", "store").Logger(),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err == nil {
		s.logger.Info().Str("path", cfg.Path).Str("vec_version", vecVersion).Msg("Store opened")
	} else {
		s.logger.Info().Str("path", cfg.Path).Msg("Store opened")
	}

	return s, nil
}

// initSchema creates database tables
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS project_configs (
			project_key TEXT PRIMARY KEY,
			config TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS import_jobs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			project_key TEXT NOT NULL,
			status TEXT NOT NULL,
			processed_items INTEGER NOT NULL DEFAULT 0,
			errors TEXT NOT NULL DEFAULT '[]',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			completed_at INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_project ON import_jobs(project_key, created_at);

		CREATE TABLE IF NOT EXISTS tracked_items (
			external_id TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			component TEXT NOT NULL DEFAULT '',
			assignee TEXT NOT NULL DEFAULT '',
			reporter TEXT NOT NULL DEFAULT '',
			acceptance_criteria TEXT NOT NULL DEFAULT '',
			source_created_at INTEGER NOT NULL,
			source_updated_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (external_id, category)
		);
		CREATE INDEX IF NOT EXISTS idx_items_category ON tracked_items(category);

		CREATE TABLE IF NOT EXISTS embeddings (
			source_id TEXT NOT NULL,
			source_type TEXT NOT NULL,
			content TEXT NOT NULL,
			vector BLOB NOT NULL,
			dimension INTEGER NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			document_date INTEGER,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (source_id, source_type)
		);
		CREATE INDEX IF NOT EXISTS idx_embeddings_type ON embeddings(source_type, document_date);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}
