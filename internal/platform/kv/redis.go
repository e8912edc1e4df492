package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/config"
)

// Connect opens a Redis client for the shared cache backend and verifies it with PING.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}
