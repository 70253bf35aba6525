package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 20*time.Second, defaultBucketTTL(2, 20))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 10))
}

func TestCastHelpers(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(3), castToInt(3.7))
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, float64(4), castToFloat(int64(4)))
	assert.Equal(t, float64(0), castToFloat("nope"))
}

func TestXPAwardLimiterDisabledAllowsEverything(t *testing.T) {
	limiter, err := NewXPAwardLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "1", "2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestXPAwardLimiterRequiresRedis(t *testing.T) {
	_, err := NewXPAwardLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true, XPAwardRate: 1, XPAwardBurst: 1}}, nil)
	assert.Error(t, err)
}

func TestStreakLockerNilIsPassThrough(t *testing.T) {
	var locker *StreakLocker
	release, ok, err := locker.Acquire(context.Background(), "1", "2")
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestLockKeys(t *testing.T) {
	assert.Equal(t, "streak:11:22", StreakLockKey(" 11", "22 "))
	assert.Equal(t, "scheduler:streak_expiry", SchedulerLockKey(" Streak_Expiry"))
}

func TestLockerWithoutRedis(t *testing.T) {
	var locker *Locker
	_, err := locker.Acquire(context.Background(), "scheduler:x", time.Second)
	assert.ErrorIs(t, err, ErrLockNotConfigured)

	var lease *Lease
	assert.NoError(t, lease.Release(context.Background()))
}

func TestStreakLockTTL(t *testing.T) {
	assert.Equal(t, 5*time.Second, streakLockTTL(config.Config{}))
	assert.Equal(t, 9*time.Second, streakLockTTL(config.Config{RateLimit: config.RateLimitConfig{StreakLockTTLSeconds: 9}}))
}
