package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache shares cached reads between portal instances. Tags are
// stored as redis sets of member keys.
func NewRedisCache(client *redis.Client, ttl time.Duration, prefix string) Cache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

func (c *redisCache) key(k string) string {
	return c.prefix + "cache:" + k
}

func (c *redisCache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, tags ...string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(key), value, c.ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, c.tagKey(tag), c.key(key))
		pipe.Expire(ctx, c.tagKey(tag), c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) InvalidateTag(ctx context.Context, tag string) error {
	keys, err := c.client.SMembers(ctx, c.tagKey(tag)).Result()
	if err != nil {
		return err
	}
	keys = append(keys, c.tagKey(tag))
	return c.client.Del(ctx, keys...).Err()
}
