package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EmbeddingRecord is one stored content embedding. (SourceID, SourceType) is
// the unique composite key. CreatedAt is the last regeneration time and
// drives the staleness policy.
type EmbeddingRecord struct {
	SourceID     string     `json:"source_id"`
	SourceType   string     `json:"source_type"`
	Content      string     `json:"content"`
	Vector       []float32  `json:"-"`
	Version      string     `json:"version"`
	DocumentDate *time.Time `json:"document_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// GetEmbedding returns the embedding for a (sourceID, sourceType) pair, or
// nil if absent.
func (s *Store) GetEmbedding(ctx context.Context, sourceID, sourceType string) (*EmbeddingRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_id, source_type, content, vector, version, document_date, created_at
		FROM embeddings
		WHERE source_id = ? AND source_type = ?
	`, sourceID, sourceType)

	rec, err := scanEmbedding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding %s/%s: %w", sourceID, sourceType, err)
	}
	return rec, nil
}

// PutEmbedding inserts or replaces an embedding row. Replacement overwrites
// content, vector, version, document date and created_at.
func (s *Store) PutEmbedding(ctx context.Context, rec *EmbeddingRecord) error {
	if rec.SourceID == "" || rec.SourceType == "" {
		return errors.New("source id and source type are required")
	}
	if len(rec.Vector) == 0 {
		return errors.New("vector is required")
	}

	blob, err := serializeVector(rec.Vector)
	if err != nil {
		return err
	}

	var documentDate any
	if rec.DocumentDate != nil {
		documentDate = rec.DocumentDate.Unix()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO embeddings (source_id, source_type, content, vector, dimension, version, document_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, source_type) DO UPDATE SET
			content = excluded.content,
			vector = excluded.vector,
			dimension = excluded.dimension,
			version = excluded.version,
			document_date = excluded.document_date,
			created_at = excluded.created_at
	`, rec.SourceID, rec.SourceType, rec.Content, blob, len(rec.Vector),
		rec.Version, documentDate, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store embedding %s/%s: %w", rec.SourceID, rec.SourceType, err)
	}

	return nil
}

// DeleteEmbeddings removes embeddings for a source id. An empty sourceType
// removes the rows for all source types.
func (s *Store) DeleteEmbeddings(ctx context.Context, sourceID, sourceType string) (int64, error) {
	var res sql.Result
	var err error

	if sourceType == "" {
		res, err = s.db.ExecContext(ctx,
			"DELETE FROM embeddings WHERE source_id = ?", sourceID)
	} else {
		res, err = s.db.ExecContext(ctx,
			"DELETE FROM embeddings WHERE source_id = ? AND source_type = ?", sourceID, sourceType)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete embeddings for %s: %w", sourceID, err)
	}

	return res.RowsAffected()
}

// EmbeddingStats summarizes the embedding table for observability.
type EmbeddingStats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// GetEmbeddingStats returns the total embedding count and the breakdown by
// source type.
func (s *Store) GetEmbeddingStats(ctx context.Context) (*EmbeddingStats, error) {
	stats := &EmbeddingStats{ByType: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_type, COUNT(*) FROM embeddings GROUP BY source_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sourceType string
		var count int
		if err := rows.Scan(&sourceType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan embedding stats: %w", err)
		}
		stats.ByType[sourceType] = count
		stats.Total += count
	}

	return stats, rows.Err()
}

// ListEmbeddings returns embeddings filtered by source types and an inclusive
// document date range. Nil bounds and an empty type list mean unfiltered.
// Filtering happens in SQL, before any scoring.
func (s *Store) ListEmbeddings(ctx context.Context, sourceTypes []string, from, to *time.Time) ([]EmbeddingRecord, error) {
	var conds []string
	var args []any

	if len(sourceTypes) > 0 {
		placeholders := strings.Repeat("?,", len(sourceTypes))
		conds = append(conds, fmt.Sprintf("source_type IN (%s)", placeholders[:len(placeholders)-1]))
		for _, t := range sourceTypes {
			args = append(args, t)
		}
	}
	if from != nil {
		conds = append(conds, "document_date IS NOT NULL AND document_date >= ?")
		args = append(args, from.Unix())
	}
	if to != nil {
		conds = append(conds, "document_date IS NOT NULL AND document_date <= ?")
		args = append(args, to.Unix())
	}

	query := "SELECT source_id, source_type, content, vector, version, document_date, created_at FROM embeddings"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var records []EmbeddingRecord
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanEmbedding(row rowScanner) (*EmbeddingRecord, error) {
	var rec EmbeddingRecord
	var blob []byte
	var documentDate sql.NullInt64
	var createdAt int64

	err := row.Scan(&rec.SourceID, &rec.SourceType, &rec.Content, &blob,
		&rec.Version, &documentDate, &createdAt)
	if err != nil {
		return nil, err
	}

	vec, err := deserializeVector(blob)
	if err != nil {
		return nil, err
	}
	rec.Vector = vec

	if documentDate.Valid {
		t := time.Unix(documentDate.Int64, 0).UTC()
		rec.DocumentDate = &t
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &rec, nil
}
