package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/abenov/mediavault/internal/config"
	"github.com/redis/go-redis/v9"
)

const defaultBrokerTimeout = 5 * time.Second

// NewRedisClient connects to the event broker and verifies it is reachable.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: defaultBrokerTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, defaultBrokerTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
