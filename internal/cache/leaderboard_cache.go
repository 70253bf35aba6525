package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/touchbase/internal/config"
	"go.uber.org/zap"
)

const leaderboardKeyPrefix = "leaderboard:"

// LeaderboardCache stores serialized leaderboard pages for a short time.
type LeaderboardCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

// NewLeaderboardCache prefers Redis when a client is configured and falls back to memory.
// A zero TTL disables caching.
func NewLeaderboardCache(cfg config.Config, client *redis.Client, log *zap.Logger) LeaderboardCache {
	ttl := time.Duration(cfg.Leaderboard.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		return noopLeaderboardCache{}
	}
	if client != nil {
		return &redisLeaderboardCache{client: client, ttl: ttl, log: log.Named("leaderboard.cache")}
	}
	return &memoryLeaderboardCache{items: NewTTLCache[string, []byte](), ttl: ttl}
}

type noopLeaderboardCache struct{}

func (noopLeaderboardCache) Get(context.Context, string, any) bool { return false }
func (noopLeaderboardCache) Set(context.Context, string, any)      {}

type memoryLeaderboardCache struct {
	items Cache[string, []byte]
	ttl   time.Duration
}

func (c *memoryLeaderboardCache) Get(_ context.Context, key string, dest any) bool {
	raw, ok := c.items.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memoryLeaderboardCache) Set(_ context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.items.Set(key, raw, c.ttl)
}

type redisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func (c *redisLeaderboardCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, leaderboardKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("leaderboard cache read failed", zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *redisLeaderboardCache) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, leaderboardKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("leaderboard cache write failed", zap.Error(err))
	}
}

// Key joins normalized parts into a cache key.
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
