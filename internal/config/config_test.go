package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNeverBypassesAuthInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_DEV_BYPASS", "true")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Auth.DevBypass)
}

func TestLoadReadsSchedulerSettings(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SCHEDULER_JOBS", " streak_expiry, ,leaderboard_warm")
	t.Setenv("SCHEDULER_RUN_INTERVAL_SECONDS", "60")

	cfg := Load()
	assert.Equal(t, []string{"streak_expiry", "leaderboard_warm"}, cfg.Scheduler.EnabledJobs)
	assert.Equal(t, 60, cfg.Scheduler.RunIntervalSeconds)
	assert.False(t, cfg.IsProduction())
}

func TestDefaultRulesAreValid(t *testing.T) {
	require.NoError(t, validateRules(DefaultGamificationRules()))
}

func TestValidateRulesRejectsBadTables(t *testing.T) {
	cases := map[string]func(*GamificationRules){
		"non-positive points": func(r *GamificationRules) { r.Actions = map[string]int64{"complete_step": 0} },
		"unordered levels": func(r *GamificationRules) {
			r.Levels = []Level{{Level: 1, MinXP: 100}, {Level: 2, MinXP: 50}}
		},
		"threshold missing": func(r *GamificationRules) {
			r.Badges = []BadgeDefinition{{Code: "xp_x", Criteria: "xp_total"}}
		},
		"unknown criteria": func(r *GamificationRules) {
			r.Badges = []BadgeDefinition{{Code: "odd", Criteria: "vibes"}}
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rules := DefaultGamificationRules()
			mutate(&rules)
			assert.Error(t, validateRules(rules))
		})
	}
}

func TestDecodeRulesFillsMissingSections(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("gamification:\n  actions:\n    complete_step: 15\n")))

	defaults := DefaultGamificationRules()
	rules, err := decodeRules(v, defaults)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"complete_step": 15}, rules.Actions)
	assert.Equal(t, defaults.Levels, rules.Levels)
	assert.Equal(t, defaults.Badges, rules.Badges)
}

func TestActionPointsNormalizesName(t *testing.T) {
	holder := NewStaticRulesHolder(DefaultGamificationRules())

	points, ok := holder.ActionPoints(" Complete_Step ")
	assert.True(t, ok)
	assert.Equal(t, int64(10), points)

	_, ok = holder.ActionPoints("teleport")
	assert.False(t, ok)
}

func TestLoadObservabilityDefaultsFollowEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTLP_ENDPOINT", "collector:4317")
	t.Setenv("LOG_LEVEL", " WARN ")

	cfg := Load()
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.Equal(t, 0.1, cfg.Observability.OtelSamplingRatio)

	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	cfg = Load()
	assert.Equal(t, "console", cfg.Observability.LogFormat)
	assert.Equal(t, 0.5, cfg.Observability.OtelSamplingRatio)
}
