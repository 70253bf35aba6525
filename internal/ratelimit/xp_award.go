package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/touchbase/internal/config"
)

const keyXPAwardUser = "xp:award:%s:%s"

// XPAwardLimiter caps XP award calls per (org, user).
type XPAwardLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewXPAwardLimiter(cfg config.Config, client *redis.Client) (*XPAwardLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.XPAwardRate <= 0 || limitCfg.XPAwardBurst <= 0 {
		return nil, errors.New("xp award rate limit must be positive")
	}

	return &XPAwardLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.XPAwardRate,
		burst:   limitCfg.XPAwardBurst,
	}, nil
}

func (l *XPAwardLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *XPAwardLimiter) Allow(ctx context.Context, orgID, userID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyXPAwardUser, strings.TrimSpace(orgID), strings.TrimSpace(userID))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
