package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	CriteriaXPTotal   = "xp_total"
	CriteriaStreak    = "streak"
	CriteriaMilestone = "milestone"
)

const (
	MilestoneFirstStep       = "first_step"
	MilestoneModuleCompleted = "module_completed"
)

// Badge is an organization's catalog entry.
type Badge struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;uniqueIndex:ux_badges_org_code,priority:1" json:"org_id"`
	Code         string       `gorm:"size:64;not null;uniqueIndex:ux_badges_org_code,priority:2" json:"code"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Description  string       `gorm:"type:text;not null;default:''" json:"description"`
	Category     string       `gorm:"type:text;not null;default:''" json:"category"`
	Icon         string       `gorm:"type:text;not null;default:''" json:"icon"`
	XPReward     int64        `gorm:"not null;default:0" json:"xp_reward"`
	Criteria     string       `gorm:"type:text;not null" json:"criteria"`
	Threshold    int64        `gorm:"not null;default:0" json:"threshold"`
	MilestoneKey string       `gorm:"type:text;not null;default:''" json:"milestone_key"`
	Active       bool         `gorm:"not null" json:"active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Badge) TableName() string { return "badges" }

// UserBadge records one grant; (user_id, badge_id) is unique.
type UserBadge struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:ux_user_badges_user_badge,priority:1" json:"user_id"`
	BadgeID   snowflake.ID `gorm:"not null;uniqueIndex:ux_user_badges_user_badge,priority:2" json:"badge_id"`
	AwardedAt time.Time    `gorm:"not null" json:"awarded_at"`
}

func (UserBadge) TableName() string { return "user_badges" }

// Qualifies reports whether the trigger satisfies the badge criteria.
func (b Badge) Qualifies(t Trigger) bool {
	if !b.Active {
		return false
	}
	switch b.Criteria {
	case CriteriaXPTotal:
		return t.XPTotal != nil && b.Threshold > 0 && *t.XPTotal >= b.Threshold
	case CriteriaStreak:
		return t.Streak != nil && b.Threshold > 0 && *t.Streak >= b.Threshold
	case CriteriaMilestone:
		return t.Milestone != "" && b.MilestoneKey == t.Milestone
	default:
		return false
	}
}
