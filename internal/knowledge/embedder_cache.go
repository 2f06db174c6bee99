package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EmbeddingCache stores vectors by key.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error
}

// RedisEmbeddingCache keeps vectors as JSON strings in Redis.
type RedisEmbeddingCache struct {
	client redis.UniversalClient
}

func NewRedisEmbeddingCache(client redis.UniversalClient) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{client: client}
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// CachedEmbedder consults cache before delegating to the wrapped Embedder.
// Cache failures are logged and never fail an embedding.
type CachedEmbedder struct {
	next      Embedder
	cache     EmbeddingCache
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

func NewCachedEmbedder(next Embedder, cache EmbeddingCache, namespace string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		next:      next,
		cache:     cache,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.namespace + "\x00" + text))
	return "plotcraft:embedding:" + hex.EncodeToString(sum[:])
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)

	vec, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		e.logger.Warn("embedding cache read failed", zap.Error(err))
		recordCacheResult("error")
	case ok:
		recordCacheResult("hit")
		return vec, nil
	default:
		recordCacheResult("miss")
	}

	vec, err = e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, key, vec, e.ttl); err != nil {
		e.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return vec, nil
}

func (e *CachedEmbedder) Dimensions() int {
	return e.next.Dimensions()
}

func (e *CachedEmbedder) Ready() bool {
	return e.next.Ready()
}
