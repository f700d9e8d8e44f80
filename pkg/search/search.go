package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/halim/trackmind/internal/observability"
	"github.com/halim/trackmind/pkg/embedding"
	"github.com/halim/trackmind/pkg/store"
)

// DefaultLimit bounds result sets when the caller passes no limit.
const DefaultLimit = 10

// Searcher ranks stored embeddings against a query.
type Searcher struct {
	store    *store.Store
	provider embedding.Provider
	logger   zerolog.Logger
	now      func() time.Time
}

// Config holds searcher configuration.
type Config struct {
	Store    *store.Store
	Provider embedding.Provider
	Logger   zerolog.Logger
}

// NewSearcher creates a new similarity searcher.
func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("embedding provider is required")
	}

	observability.EnsureRegistered()

	return &Searcher{
		store:    cfg.Store,
		provider: cfg.Provider,
		logger:   cfg.Logger.With().Str("component", "search").Logger(),
		now:      time.Now,
	}, nil
}

// Options filters and bounds a vector search.
type Options struct {
	// SourceTypes restricts candidates; empty means all types.
	SourceTypes []string

	// Limit truncates the result set; zero means DefaultLimit.
	Limit int

	// Threshold is the minimum similarity for a confident match. When no
	// candidate reaches it, the top Limit candidates are returned anyway.
	Threshold float64

	// From/To bound the candidates' document dates inclusively; nil means
	// unbounded.
	From *time.Time
	To   *time.Time
}

// Match is one ranked search result.
type Match struct {
	SourceID   string  `json:"source_id"`
	SourceType string  `json:"source_type"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// VectorSearch embeds the query once, scores every candidate that passes the
// type and date filters, and returns matches sorted by descending similarity.
//
// Threshold fallback: if at least one candidate meets the threshold, only
// those are returned; if none do, the top candidates are returned regardless
// of score. A weak match is more useful to the caller than silence.
func (s *Searcher) VectorSearch(ctx context.Context, query string, opts Options) ([]Match, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := s.now()
	defer func() { observability.RecordSearch(time.Since(start)) }()

	queryVec, err := s.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Filter in SQL before scoring to bound cost.
	candidates, err := s.store.ListEmbeddings(ctx, opts.SourceTypes, opts.From, opts.To)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for _, cand := range candidates {
		matches = append(matches, Match{
			SourceID:   cand.SourceID,
			SourceType: cand.SourceType,
			Content:    cand.Content,
			Similarity: CosineSimilarity(queryVec, cand.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	above := 0
	for _, m := range matches {
		if m.Similarity >= opts.Threshold {
			above++
		}
	}

	if above > 0 {
		matches = matches[:above]
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.logger.Debug().
		Int("candidates", len(candidates)).
		Int("above_threshold", above).
		Int("returned", len(matches)).
		Msg("Vector search completed")

	return matches, nil
}

// VectorSearchWithTimeframe translates a symbolic window into a concrete
// from-date and delegates to VectorSearch.
func (s *Searcher) VectorSearchWithTimeframe(ctx context.Context, query string, timeframe Timeframe, opts Options) ([]Match, error) {
	from, err := timeframe.FromDate(s.now())
	if err != nil {
		return nil, err
	}

	opts.From = from
	return s.VectorSearch(ctx, query, opts)
}
