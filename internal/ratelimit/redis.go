package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/touchbase/internal/config"
	"go.uber.org/fx"
)

// NewRedisClient returns nil when no Redis address is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RateLimit.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RateLimit.RedisPassword),
		DB:       cfg.RateLimit.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
