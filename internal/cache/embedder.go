package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"aller-discovery/internal/contextutil"
)

// Embedder produces an embedding for a single text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// CachedEmbedder wraps an Embedder with a read-through cache.
// Cache failures are logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	next  Embedder
	cache Client
	model string
	ttl   time.Duration
}

// NewCachedEmbedder creates a CachedEmbedder. model namespaces the keys so
// vectors from different embedding models never mix.
func NewCachedEmbedder(next Embedder, cache Client, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		next:  next,
		cache: cache,
		model: model,
		ttl:   ttl,
	}
}

// EmbedText returns the cached embedding for text, computing and storing it on a miss.
func (e *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)
	key := e.key(text)

	raw, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		vec, decErr := decodeVector(raw)
		if decErr == nil {
			logger.DebugContext(ctx, "embedding cache hit", "model", e.model)
			return vec, nil
		}
		logger.WarnContext(ctx, "discarding corrupt cached embedding", "error", decErr)
	case !errors.Is(err, ErrCacheMiss):
		logger.WarnContext(ctx, "embedding cache read failed", "error", err)
	}

	vec, err := e.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Set(ctx, key, encodeVector(vec), e.ttl); err != nil {
		logger.WarnContext(ctx, "embedding cache write failed", "error", err)
	}
	return vec, nil
}

// Purge removes every cached embedding for the configured model.
func (e *CachedEmbedder) Purge(ctx context.Context) error {
	return e.cache.DeleteByPrefix(ctx, e.keyPrefix())
}

func (e *CachedEmbedder) keyPrefix() string {
	return "emb:" + e.model + ":"
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.keyPrefix() + hex.EncodeToString(sum[:])
}

// encodeVector packs a vector as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding of %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
