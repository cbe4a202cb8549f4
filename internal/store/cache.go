package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"tool-rack-lookup/internal/models"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "toolrack:"

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by a Redis client.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Cached is a read-through cache in front of another Store. Errors and
// not-found results are never cached; cache failures fall through to the
// wrapped store.
type Cached struct {
	next  Store
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCached(next Store, cache Cache, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *Cached) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return readThrough(ctx, c, keyPrefix+"customers", c.next.ListCustomers)
}

func (c *Cached) ListToolsByCustomer(ctx context.Context, customerID int64) ([]models.Tool, error) {
	key := fmt.Sprintf("%stools:customer:%d", keyPrefix, customerID)
	return readThrough(ctx, c, key, func(ctx context.Context) ([]models.Tool, error) {
		return c.next.ListToolsByCustomer(ctx, customerID)
	})
}

func (c *Cached) GetTool(ctx context.Context, id int64) (*models.Tool, error) {
	key := fmt.Sprintf("%stool:%d", keyPrefix, id)
	return readThrough(ctx, c, key, func(ctx context.Context) (*models.Tool, error) {
		return c.next.GetTool(ctx, id)
	})
}

func (c *Cached) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

func readThrough[T any](ctx context.Context, c *Cached, key string, load func(context.Context) (T, error)) (T, error) {
	b, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return v, nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if b, err := json.Marshal(v); err == nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}
