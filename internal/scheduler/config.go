package scheduler

import (
	"time"

	"github.com/smallbiznis/touchbase/internal/config"
)

const (
	JobStreakExpiry     = "streak_expiry"
	JobLeaderboardWarm  = "leaderboard_warm"
	defaultJobTimeout   = 30 * time.Second
	defaultLockTTLSlack = 5 * time.Second
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	BatchSize   int
	EnabledJobs []string
	Timezone    string
	// WarmLeaderboards is false when no leaderboard cache is configured.
	WarmLeaderboards bool
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		RunInterval: 5 * time.Minute,
		BatchSize:   100,
		Timezone:    "UTC",
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:          cfg.Scheduler.Enabled,
		RunInterval:      time.Duration(cfg.Scheduler.RunIntervalSeconds) * time.Second,
		BatchSize:        cfg.Scheduler.BatchSize,
		EnabledJobs:      cfg.Scheduler.EnabledJobs,
		Timezone:         cfg.Streak.Timezone,
		WarmLeaderboards: cfg.Leaderboard.CacheTTLSeconds > 0,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
	}
	return c
}
