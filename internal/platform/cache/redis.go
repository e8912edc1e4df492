package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "problems:cache:"

// RedisCache shares entries between processes through Redis.
//
// Keys are namespaced by a generation id. Clear installs a new generation, which makes every
// older key unreachable in a single write; the old keys are then deleted best-effort and would
// otherwise age out through their Redis TTL.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, prefix: defaultRedisPrefix, ttl: ttl}
}

func (c *RedisCache) generationKey() string {
	return c.prefix + "generation"
}

func (c *RedisCache) indexKey(gen string) string {
	return c.prefix + gen + ":keys"
}

func (c *RedisCache) dataKey(gen, key string) string {
	return c.prefix + gen + ":" + key
}

func (c *RedisCache) generation(ctx context.Context) (string, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey()).Result()
	if err == nil {
		return gen, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis cache: read generation: %w", err)
	}
	// First writer wins; everyone re-reads whatever was stored.
	if err := c.rdb.SetNX(ctx, c.generationKey(), uuid.NewString(), 0).Err(); err != nil {
		return "", fmt.Errorf("redis cache: init generation: %w", err)
	}
	gen, err = c.rdb.Get(ctx, c.generationKey()).Result()
	if err != nil {
		return "", fmt.Errorf("redis cache: read generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, err
	}
	value, err := c.rdb.Get(ctx, c.dataKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache: get %s: %w", key, err)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}
	return c.SetAt(ctx, gen, key, value)
}

func (c *RedisCache) Generation(ctx context.Context) (string, error) {
	return c.generation(ctx)
}

// SetAt writes under WATCH of the generation pointer. A rotation before or during the
// write drops it.
func (c *RedisCache) SetAt(ctx context.Context, gen, key string, value []byte) error {
	dataKey := c.dataKey(gen, key)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, c.generationKey()).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey, value, c.ttl)
			pipe.SAdd(ctx, c.indexKey(gen), dataKey)
			pipe.Expire(ctx, c.indexKey(gen), c.ttl)
			return nil
		})
		return err
	}, c.generationKey())
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis cache: set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	old, err := c.rdb.GetSet(ctx, c.generationKey(), uuid.NewString()).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis cache: rotate generation: %w", err)
	}

	keys, err := c.rdb.SMembers(ctx, c.indexKey(old)).Result()
	if err != nil {
		// The new generation is already live; stale keys expire on their own.
		return nil
	}
	keys = append(keys, c.indexKey(old))
	_ = c.rdb.Del(ctx, keys...).Err()
	return nil
}

func (c *RedisCache) Len(ctx context.Context) (int, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, err
	}
	n, err := c.rdb.SCard(ctx, c.indexKey(gen)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis cache: count: %w", err)
	}
	return int(n), nil
}
