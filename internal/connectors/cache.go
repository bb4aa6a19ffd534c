// internal/connectors/cache.go
package connectors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"time"

	"demand-radar/internal/common/database"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache fronts live connectors with a redis cache-aside layer so repeated
// collections for the same query within the TTL do not hit the source
// again. Cache trouble is logged and the call falls through to the live
// fetch; the cache can disappear without breaking collection.
type Cache struct {
	redis *database.RedisClient
	ttl   time.Duration
	errs  *commonerrors.ErrorHandler
}

func NewCache(redis *database.RedisClient, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{redis: redis, ttl: ttl, errs: commonerrors.NewErrorHandler(log)}
}

// Front wraps a live connector with the cache.
func (c *Cache) Front(inner Connector) Connector {
	return &cachedConnector{inner: inner, cache: c}
}

type cachedConnector struct {
	inner Connector
	cache *Cache
}

func (c *cachedConnector) Source() models.Source {
	return c.inner.Source()
}

func (c *cachedConnector) Fetch(ctx context.Context, query string) ([]models.RawSignal, error) {
	key := cacheKey(c.inner.Source(), query)

	raw, err := c.cache.redis.Get(ctx, key)
	if err == nil {
		var signals []models.RawSignal
		if err := json.Unmarshal([]byte(raw), &signals); err == nil {
			return signals, nil
		}
		// Corrupt entry, drop it and refetch.
		_ = c.cache.redis.Del(ctx, key)
	} else if !stderrors.Is(err, redis.Nil) {
		c.cache.errs.HandleRecovered("cache read", commonerrors.NewCacheError(key, err))
	}

	signals, err := c.inner.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(signals) > 0 {
		if data, err := json.Marshal(signals); err == nil {
			if err := c.cache.redis.Set(ctx, key, data, c.cache.ttl); err != nil {
				c.cache.errs.HandleRecovered("cache write", commonerrors.NewCacheError(key, err))
			}
		}
	}
	return signals, nil
}

// cacheKey hashes the query so arbitrary user text never lands in a key.
func cacheKey(source models.Source, query string) string {
	h := fnv.New64a()
	h.Write([]byte(query))
	return fmt.Sprintf("signals:%s:%x", source, h.Sum64())
}
