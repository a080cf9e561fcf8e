package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	redisv9 "github.com/redis/go-redis/v9"
)

// Cache drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

const defaultTTL = 24 * time.Hour

// RedisEmbeddingCache keeps vectors as JSON strings under "emb:<key>".
type RedisEmbeddingCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisEmbeddingCache(client *redisv9.Client, ttl time.Duration) *RedisEmbeddingCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisEmbeddingCache{client: client, ttl: ttl}
}

func (c *RedisEmbeddingCache) GetVector(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.vectorKey(key)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get embedding failed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached embedding failed: %w", err)
	}
	return vec, true, nil
}

func (c *RedisEmbeddingCache) SetVector(ctx context.Context, key string, vector []float32) error {
	payload, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.vectorKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set embedding failed: %w", err)
	}
	return nil
}

func (c *RedisEmbeddingCache) vectorKey(key string) string {
	return fmt.Sprintf("emb:%s", key)
}

// MemoryEmbeddingCache is a process-local TTL cache.
type MemoryEmbeddingCache struct {
	store *gocache.Cache
}

func NewMemoryEmbeddingCache(ttl time.Duration) *MemoryEmbeddingCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryEmbeddingCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryEmbeddingCache) GetVector(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	vec, ok := v.([]float32)
	return vec, ok, nil
}

func (c *MemoryEmbeddingCache) SetVector(_ context.Context, key string, vector []float32) error {
	c.store.SetDefault(key, vector)
	return nil
}

// Len reports the number of cached vectors, expired ones included until the
// next cleanup.
func (c *MemoryEmbeddingCache) Len() int {
	return c.store.ItemCount()
}
