package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "insights:"

// Cache keeps computed insight documents in redis so repeated dashboard
// loads skip the aggregation pass.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, companyID string) (Insights, bool) {
	data, err := c.redis.Get(ctx, cacheKeyPrefix+companyID).Bytes()
	if err != nil {
		return Insights{}, false
	}
	var insights Insights
	if err := json.Unmarshal(data, &insights); err != nil {
		return Insights{}, false
	}
	return insights, true
}

func (c *Cache) Put(ctx context.Context, companyID string, insights Insights) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, cacheKeyPrefix+companyID, data, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, companyID string) {
	_ = c.redis.Del(ctx, cacheKeyPrefix+companyID).Err()
}
