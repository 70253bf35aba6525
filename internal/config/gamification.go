package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GamificationRules is the hot-reloadable reward table.
type GamificationRules struct {
	Actions map[string]int64  `mapstructure:"actions"`
	Levels  []Level           `mapstructure:"levels"`
	Badges  []BadgeDefinition `mapstructure:"badges"`
}

type Level struct {
	Level int    `mapstructure:"level"`
	Name  string `mapstructure:"name"`
	MinXP int64  `mapstructure:"minXp"`
}

// BadgeDefinition seeds an organization's badge catalog.
type BadgeDefinition struct {
	Code         string `mapstructure:"code"`
	Name         string `mapstructure:"name"`
	Description  string `mapstructure:"description"`
	Category     string `mapstructure:"category"`
	Icon         string `mapstructure:"icon"`
	XPReward     int64  `mapstructure:"xpReward"`
	Criteria     string `mapstructure:"criteria"`
	Threshold    int64  `mapstructure:"threshold"`
	MilestoneKey string `mapstructure:"milestoneKey"`
}

func DefaultGamificationRules() GamificationRules {
	return GamificationRules{
		Actions: map[string]int64{
			"complete_step":     10,
			"finish_module":     50,
			"streak_day":        5,
			"submit_assignment": 20,
			"perfect_score":     25,
			"daily_login":       2,
		},
		Levels: []Level{
			{Level: 1, Name: "Rookie", MinXP: 0},
			{Level: 2, Name: "Starter", MinXP: 100},
			{Level: 3, Name: "Regular", MinXP: 300},
			{Level: 4, Name: "All-Star", MinXP: 700},
			{Level: 5, Name: "Hall of Famer", MinXP: 1500},
		},
		Badges: []BadgeDefinition{
			{Code: "first_steps", Name: "First Steps", Description: "Completed a first module step", Category: "progress", Icon: "footprints", Criteria: "milestone", MilestoneKey: "first_step"},
			{Code: "module_master", Name: "Module Master", Description: "Finished a learning module", Category: "progress", Icon: "trophy", XPReward: 25, Criteria: "milestone", MilestoneKey: "module_completed"},
			{Code: "xp_100", Name: "Century", Description: "Earned 100 XP", Category: "xp", Icon: "star", Criteria: "xp_total", Threshold: 100},
			{Code: "xp_500", Name: "High Scorer", Description: "Earned 500 XP", Category: "xp", Icon: "medal", XPReward: 50, Criteria: "xp_total", Threshold: 500},
			{Code: "streak_7", Name: "On Fire", Description: "Seven day activity streak", Category: "streak", Icon: "flame", XPReward: 20, Criteria: "streak", Threshold: 7},
			{Code: "streak_30", Name: "Iron Will", Description: "Thirty day activity streak", Category: "streak", Icon: "shield", XPReward: 100, Criteria: "streak", Threshold: 30},
		},
	}
}

type GamificationRulesHolder struct {
	current atomic.Value // holds GamificationRules
}

// NewStaticRulesHolder wraps fixed rules without watching a file.
func NewStaticRulesHolder(rules GamificationRules) *GamificationRulesHolder {
	holder := &GamificationRulesHolder{}
	holder.current.Store(rules)
	return holder
}

func NewGamificationRulesHolder() (*GamificationRulesHolder, error) {
	v := viper.New()

	v.SetConfigName("gamification")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/touchbase")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TOUCHBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGamificationRules()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		return NewStaticRulesHolder(defaults), nil
	}

	cfg, err := decodeRules(v, defaults)
	if err != nil {
		return nil, err
	}

	holder := NewStaticRulesHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeRules(v, defaults)
		if err != nil {
			zap.L().Warn("gamification rules reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("gamification rules reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *GamificationRulesHolder) Get() GamificationRules {
	return h.current.Load().(GamificationRules)
}

// ActionPoints returns the XP value of an action and whether it is known.
func (h *GamificationRulesHolder) ActionPoints(action string) (int64, bool) {
	points, ok := h.Get().Actions[strings.ToLower(strings.TrimSpace(action))]
	return points, ok
}

func decodeRules(v *viper.Viper, defaults GamificationRules) (GamificationRules, error) {
	var cfg GamificationRules
	if err := v.UnmarshalKey("gamification", &cfg); err != nil {
		return GamificationRules{}, err
	}
	if len(cfg.Actions) == 0 {
		cfg.Actions = defaults.Actions
	}
	if len(cfg.Levels) == 0 {
		cfg.Levels = defaults.Levels
	}
	if cfg.Badges == nil {
		cfg.Badges = defaults.Badges
	}
	if err := validateRules(cfg); err != nil {
		return GamificationRules{}, err
	}
	return cfg, nil
}

func validateRules(cfg GamificationRules) error {
	for action, points := range cfg.Actions {
		if points <= 0 {
			return fmt.Errorf("gamification.actions.%s must be positive", action)
		}
	}
	for i := 1; i < len(cfg.Levels); i++ {
		if cfg.Levels[i].MinXP <= cfg.Levels[i-1].MinXP {
			return errors.New("gamification.levels must be ordered by minXp")
		}
	}
	for _, badge := range cfg.Badges {
		switch badge.Criteria {
		case "xp_total", "streak":
			if badge.Threshold <= 0 {
				return fmt.Errorf("badge %s requires a positive threshold", badge.Code)
			}
		case "milestone":
			if strings.TrimSpace(badge.MilestoneKey) == "" {
				return fmt.Errorf("badge %s requires a milestoneKey", badge.Code)
			}
		default:
			return fmt.Errorf("badge %s has unknown criteria %q", badge.Code, badge.Criteria)
		}
	}
	return nil
}
