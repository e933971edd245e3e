package redis

import (
	"context"
	"fmt"
	"time"

	"memory-test-service/internal/config"
	"memory-test-service/internal/logger"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis creates the shared client. A failed ping is returned so the
// caller can decide whether to run without the cache.
func InitRedis(cfg *config.RedisConfig, log *logger.Logger) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Connected to Redis", "addr", cfg.Addr)
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		_ = RedisClient.Close()
	}
}
