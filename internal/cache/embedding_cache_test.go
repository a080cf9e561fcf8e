package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEmbeddingCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEmbeddingCache(time.Minute)

	_, ok, err := c.GetVector(ctx, "m:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetVector(ctx, "m:a", []float32{0.1, 0.2}))
	vec, ok, err := c.GetVector(ctx, "m:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryEmbeddingCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEmbeddingCache(20 * time.Millisecond)
	require.NoError(t, c.SetVector(ctx, "k", []float32{1}))

	assert.Eventually(t, func() bool {
		_, ok, _ := c.GetVector(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRedisVectorKey(t *testing.T) {
	c := NewRedisEmbeddingCache(nil, 0)
	assert.Equal(t, "emb:model:abc", c.vectorKey("model:abc"))
	assert.Equal(t, defaultTTL, c.ttl)
}
