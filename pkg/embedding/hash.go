package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// HashProvider generates deterministic pseudo-vectors from a content hash. It
// trades retrieval quality for availability: identical text always yields the
// identical vector, so change detection and idempotency still hold when the
// primary provider is down.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hash-based provider with the given dimension.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = 1536
	}
	return &HashProvider{dimension: dimension}
}

// Dimension returns the configured vector length.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// GenerateEmbedding derives a unit-length pseudo-vector from the text. The
// SHA-256 digest seeds a hash chain expanded to the full dimension.
func (p *HashProvider) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dimension)

	digest := sha256.Sum256([]byte(text))
	block := digest[:]

	i := 0
	for i < p.dimension {
		for off := 0; off+8 <= len(block) && i < p.dimension; off += 8 {
			bits := binary.LittleEndian.Uint64(block[off:])
			// Map to [-1, 1)
			vec[i] = float32(int64(bits))/float32(math.MaxInt64)
			i++
		}
		next := sha256.Sum256(block)
		block = next[:]
	}

	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
