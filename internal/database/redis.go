package database

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/notebook/internal/config"
	"github.com/redis/go-redis/v9"
)

// OpenRedis connects to the cache Redis and verifies the connection. It returns nil when no
// cache url is configured.
func OpenRedis(cfg config.Cache) (*redis.Client, error) {
	if cfg.Url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
