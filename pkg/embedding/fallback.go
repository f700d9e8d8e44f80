package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// FallbackProvider wraps a primary provider and falls back to a secondary
// (typically the hash provider) when the primary is unavailable.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   zerolog.Logger
}

// NewFallbackProvider creates a fallback chain. Both providers must agree on
// the vector dimension, otherwise stored vectors would be unsearchable across
// provider switches.
func NewFallbackProvider(primary, fallback Provider, logger zerolog.Logger) (*FallbackProvider, error) {
	if primary.Dimension() != fallback.Dimension() {
		return nil, fmt.Errorf("provider dimension mismatch: primary %d, fallback %d",
			primary.Dimension(), fallback.Dimension())
	}

	return &FallbackProvider{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "embedding-provider").Logger(),
	}, nil
}

// Dimension returns the shared vector length.
func (p *FallbackProvider) Dimension() int {
	return p.primary.Dimension()
}

// GenerateEmbedding tries the primary provider and falls back on failure.
func (p *FallbackProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.primary.GenerateEmbedding(ctx, text)
	if err == nil {
		return vec, nil
	}

	p.logger.Warn().Err(err).Msg("Primary embedding provider failed, using fallback")
	return p.fallback.GenerateEmbedding(ctx, text)
}
