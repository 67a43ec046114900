package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// CachedSource keeps a copy of another Source's catalog in Redis. Cache
// failures are logged and fall through to the wrapped source.
type CachedSource struct {
	next   Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(next Source, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{next: next, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedSource) Name() string { return c.next.Name() }

func (c *CachedSource) cacheKey() string {
	return "catalog:" + c.next.Name()
}

func (c *CachedSource) Plans(ctx context.Context) ([]models.InsurancePlan, error) {
	key := c.cacheKey()

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var plans []models.InsurancePlan
		if jsonErr := json.Unmarshal([]byte(cached), &plans); jsonErr == nil {
			return plans, nil
		}
		c.logger.Warn("discarding corrupt catalog cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	plans, err := c.next.Plans(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(plans); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return plans, nil
}
