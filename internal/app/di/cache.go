package di

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"stock_diagnosis/internal/platform/cache"
)

// NewCacheStore creates the persistence collaborator for both caches.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to an in-process memory store.
func NewCacheStore(rdb *redis.Client, cfg cache.Config) cache.Store {
	if rdb != nil {
		return cache.NewRedisStore(rdb, cfg.Namespace,
			cache.WithRedisRetention(cache.KindSnapshot, cfg.StaleRetention),
			cache.WithRedisRetention(cache.KindDiagnosis, cfg.StaleRetention),
		)
	}
	slog.Warn("Redis unavailable; using in-memory cache store")
	return cache.NewMemoryStore(
		cache.WithRetention(cache.KindSnapshot, cfg.StaleRetention),
		cache.WithRetention(cache.KindDiagnosis, cfg.StaleRetention),
	)
}
