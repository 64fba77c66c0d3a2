package cache

import (
	"context"

	"creator-hub/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis. Callers tolerate a nil client; cached reads
// simply miss.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without cache")
		return nil, err
	}
	return client, nil
}
