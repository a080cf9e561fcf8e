package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"
)

// VectorCache stores embeddings by key.
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float32, bool, error)
	SetVector(ctx context.Context, key string, vector []float32) error
}

// CachedEmbedder serves repeated texts from a VectorCache and only sends the
// misses to the wrapped Embedder. Cache failures degrade to a provider call.
type CachedEmbedder struct {
	next  Embedder
	cache VectorCache
	log   *zap.Logger
}

func NewCachedEmbedder(next Embedder, cache VectorCache, log *zap.Logger) *CachedEmbedder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedEmbedder{next: next, cache: cache, log: log}
}

func (e *CachedEmbedder) Dimension() int    { return e.next.Dimension() }
func (e *CachedEmbedder) ModelName() string { return e.next.ModelName() }

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		keys[i] = e.key(text)
		vec, ok, err := e.cache.GetVector(ctx, keys[i])
		if err != nil {
			e.log.Warn("embedding cache lookup failed", zap.Error(err))
		}
		if ok && len(vec) == e.Dimension() {
			vectors[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := e.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := CheckVectors(fresh, len(missTexts), e.Dimension()); err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		vectors[i] = fresh[j]
		if err := e.cache.SetVector(ctx, keys[i], fresh[j]); err != nil {
			e.log.Warn("embedding cache store failed", zap.Error(err))
		}
	}
	return vectors, nil
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.ModelName() + ":" + hex.EncodeToString(sum[:])
}
