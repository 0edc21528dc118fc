// Package cache provides a Redis-backed cache of annotation results keyed by
// dictionary and input text, with singleflight deduplication and a circuit
// breaker so a failing Redis never blocks annotation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/annotext/annotation-platform/internal/matcher"
	"github.com/annotext/annotation-platform/pkg/config"
	"github.com/annotext/annotation-platform/pkg/metrics"
	pkgredis "github.com/annotext/annotation-platform/pkg/redis"
	"github.com/annotext/annotation-platform/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "annotate:"

// Store is the slice of the Redis client the cache depends on, satisfied by
// *redis.Client from pkg/redis.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type AnnotationCache struct {
	client  Store
	cfg     config.RedisConfig
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates an AnnotationCache. The metrics handle may be nil.
func New(client Store, cfg config.RedisConfig, m *metrics.Metrics) *AnnotationCache {
	return &AnnotationCache{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("annotation-cache", resilience.CircuitBreakerConfig{}),
		metrics: m,
		logger:  slog.Default().With("component", "annotation-cache"),
	}
}

// Get performs one counted lookup: exactly one hit or one miss is recorded.
func (c *AnnotationCache) Get(ctx context.Context, dictionary, text string) ([]matcher.OffsetPosition, bool) {
	result, ok := c.fetch(ctx, dictionary, text)
	if ok {
		c.recordHit()
	} else {
		c.recordMiss()
	}
	return result, ok
}

// fetch reads the cache without touching the hit/miss counters, so callers
// that re-check a key can do so without inflating the stats.
func (c *AnnotationCache) fetch(ctx context.Context, dictionary, text string) ([]matcher.OffsetPosition, bool) {
	key := c.buildKey(dictionary, text)
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			// A miss is not a Redis failure; don't trip the breaker.
			data = ""
			return nil
		}
		return err
	})
	c.observeBreaker()
	if err != nil || data == "" {
		if err != nil {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var result []matcher.OffsetPosition
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	c.logger.Debug("cache hit", "dictionary", dictionary, "key", key)
	return result, true
}

func (c *AnnotationCache) Set(ctx context.Context, dictionary, text string, result []matcher.OffsetPosition) {
	key := c.buildKey(dictionary, text)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	c.observeBreaker()
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for (dictionary, text) or computes
// and caches it, deduplicating concurrent computations of the same key. Each
// call counts as exactly one lookup in the hit/miss stats; the re-check
// inside the singleflight group is not counted separately.
func (c *AnnotationCache) GetOrCompute(
	ctx context.Context,
	dictionary, text string,
	computeFn func() []matcher.OffsetPosition,
) ([]matcher.OffsetPosition, bool) {
	if result, ok := c.fetch(ctx, dictionary, text); ok {
		c.recordHit()
		return result, true
	}
	c.recordMiss()
	key := c.buildKey(dictionary, text)
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.fetch(ctx, dictionary, text); ok {
			return result, nil
		}
		result := computeFn()
		c.Set(ctx, dictionary, text, result)
		return result, nil
	})
	return val.([]matcher.OffsetPosition), false
}

// Invalidate removes every cached annotation result.
func (c *AnnotationCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *AnnotationCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AnnotationCache) buildKey(dictionary, text string) string {
	hash := sha256.Sum256([]byte(dictionary + "\x00" + text))
	return fmt.Sprintf("%s%s:%x", keyPrefix, dictionary, hash[:16])
}

func (c *AnnotationCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *AnnotationCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *AnnotationCache) observeBreaker() {
	if c.metrics != nil {
		c.metrics.CircuitBreakerState.WithLabelValues("annotation-cache").Set(float64(c.breaker.GetState()))
	}
}
