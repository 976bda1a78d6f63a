package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ProductCachePrefix = "product:price:"
	DefaultProductTTL  = 10 * time.Minute
)

// RedisKV is the subset of the Redis client used for product caching.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProductRepository serves product lookups from Redis before DynamoDB.
// Cache errors are logged and treated as misses.
type CachedProductRepository struct {
	inner  ProductRepository
	redis  RedisKV
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProductRepository(inner ProductRepository, rdb RedisKV, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &CachedProductRepository{inner: inner, redis: rdb, ttl: ttl, logger: logger}
}

func (c *CachedProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, ProductCachePrefix+id).Result(); err == nil {
			var p models.Product
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return &p, nil
			}
		} else if err != redis.Nil {
			c.logger.Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
		}
	}

	p, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

func (c *CachedProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	if c.redis == nil || len(ids) == 0 {
		return c.inner.FindByIDs(ctx, ids)
	}

	result := make(map[string]*models.Product, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductCachePrefix + id
	}

	var missing []string
	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Product cache batch read failed", zap.Error(err))
		missing = ids
	} else {
		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var p models.Product
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			result[ids[i]] = &p
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.inner.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range loaded {
		result[id] = p
		c.store(ctx, p)
	}
	return result, nil
}

func (c *CachedProductRepository) store(ctx context.Context, p *models.Product) {
	if c.redis == nil || p == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, ProductCachePrefix+p.ID, b, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache product", zap.String("product_id", p.ID), zap.Error(err))
	}
}
