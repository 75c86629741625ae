package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"autoposter-core/infrastructure/logger"
)

// NewCache connects to Redis. A nil client is a valid return on failure;
// callers fall back to in-process behavior.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available")
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
