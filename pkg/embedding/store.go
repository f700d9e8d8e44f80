package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halim/trackmind/internal/observability"
	"github.com/halim/trackmind/pkg/store"
)

// Store decides create/update/skip for content embeddings and persists them.
type Store struct {
	store    *store.Store
	provider Provider
	logger   zerolog.Logger
	now      func() time.Time
}

// Config holds embedding store configuration.
type Config struct {
	Store    *store.Store
	Provider Provider
	Logger   zerolog.Logger
}

// NewStore creates a new embedding store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("embedding provider is required")
	}

	observability.EnsureRegistered()

	return &Store{
		store:    cfg.Store,
		provider: cfg.Provider,
		logger:   cfg.Logger.With().Str("component", "embedding").Logger(),
		now:      time.Now,
	}, nil
}

// Request describes one embed call.
type Request struct {
	Content    string
	SourceID   string
	SourceType string
	Version    string

	// DocumentDate is the source document's own date, used for date-range
	// filtered search; nil when the source carries none.
	DocumentDate *time.Time

	// ForceRegenerate bypasses both content comparison and the staleness
	// window.
	ForceRegenerate bool

	// BulkImport marks an authoritative refresh; changed content is always
	// re-embedded regardless of the staleness window.
	BulkImport bool
}

// Result reports what EmbedContent did and why.
type Result struct {
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

// EmbedContent looks up the existing embedding for (SourceID, SourceType),
// applies the staleness policy, and regenerates and persists the vector when
// the policy calls for it.
func (s *Store) EmbedContent(ctx context.Context, req Request) (*Result, error) {
	if req.Content == "" {
		return nil, errors.New("content is required")
	}
	if req.SourceID == "" || req.SourceType == "" {
		return nil, errors.New("source id and source type are required")
	}

	existing, err := s.store.GetEmbedding(ctx, req.SourceID, req.SourceType)
	if err != nil {
		return nil, err
	}

	hasExisting := existing != nil
	contentChanged := !hasExisting || existing.Content != req.Content
	ageUnderWindow := hasExisting && s.now().Sub(existing.CreatedAt) < StalenessWindow

	action, reason := Decide(hasExisting, contentChanged, ageUnderWindow, req.BulkImport, req.ForceRegenerate)
	observability.RecordEmbedDecision(string(action))

	if action == ActionSkipped {
		s.logger.Debug().
			Str("source_id", req.SourceID).
			Str("source_type", req.SourceType).
			Str("reason", reason).
			Msg("Embedding skipped")
		return &Result{Action: action, Reason: reason}, nil
	}

	start := s.now()
	vec, err := s.provider.GenerateEmbedding(ctx, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding for %s/%s: %w", req.SourceID, req.SourceType, err)
	}
	observability.RecordEmbedDuration(time.Since(start))

	rec := &store.EmbeddingRecord{
		SourceID:     req.SourceID,
		SourceType:   req.SourceType,
		Content:      req.Content,
		Vector:       vec,
		Version:      req.Version,
		DocumentDate: req.DocumentDate,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.PutEmbedding(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("source_id", req.SourceID).
		Str("source_type", req.SourceType).
		Str("action", string(action)).
		Str("reason", reason).
		Msg("Embedding stored")

	return &Result{Action: action, Reason: reason}, nil
}

// DeleteEmbeddings removes embeddings for a source id; an empty sourceType
// removes all of its rows. Used when source content is deleted or superseded.
func (s *Store) DeleteEmbeddings(ctx context.Context, sourceID, sourceType string) (int64, error) {
	n, err := s.store.DeleteEmbeddings(ctx, sourceID, sourceType)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.logger.Info().
			Str("source_id", sourceID).
			Str("source_type", sourceType).
			Int64("removed", n).
			Msg("Embeddings deleted")
	}
	return n, nil
}

// Stats returns the total embedding count and the breakdown by source type.
func (s *Store) Stats(ctx context.Context) (*store.EmbeddingStats, error) {
	stats, err := s.store.GetEmbeddingStats(ctx)
	if err != nil {
		return nil, err
	}

	for sourceType, count := range stats.ByType {
		observability.SetEmbeddingsTotal(sourceType, count)
	}
	return stats, nil
}
