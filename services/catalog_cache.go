package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CatalogCache stores raw TMDB response bodies.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisCatalogCache struct {
	rdb redis.Cmdable
}

func NewRedisCatalogCache(rdb redis.Cmdable) *RedisCatalogCache {
	return &RedisCatalogCache{rdb: rdb}
}

func (c *RedisCatalogCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *RedisCatalogCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}
