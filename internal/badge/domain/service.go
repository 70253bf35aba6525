package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Trigger carries whichever facts just changed for a user.
type Trigger struct {
	XPTotal   *int64
	Streak    *int64
	Milestone string
}

func XPTrigger(total int64) Trigger     { return Trigger{XPTotal: &total} }
func StreakTrigger(count int64) Trigger { return Trigger{Streak: &count} }
func MilestoneTrigger(key string) Trigger {
	return Trigger{Milestone: key}
}

// Awarded is a badge granted by one evaluation.
type Awarded struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	XPReward int64  `json:"xp_reward"`
}

// Evaluator grants every qualifying badge the user does not hold yet.
type Evaluator interface {
	Evaluate(ctx context.Context, orgID, userID snowflake.ID, trigger Trigger) ([]Awarded, error)
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, orgID snowflake.ID) ([]Badge, error)
	List(ctx context.Context, orgID snowflake.ID) ([]Badge, error)
	Insert(ctx context.Context, badge Badge) error
	InsertIfAbsent(ctx context.Context, badge Badge) (bool, error)
	Grant(ctx context.Context, grant UserBadge) (bool, error)
	ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]UserBadgeView, error)
}

type Service interface {
	Evaluator
	Create(ctx context.Context, req CreateBadgeRequest) (*BadgeResponse, error)
	List(ctx context.Context, orgID snowflake.ID) ([]BadgeResponse, error)
	ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]UserBadgeResponse, error)
	SeedDefaults(ctx context.Context, orgID snowflake.ID) (int, error)
}

type CreateBadgeRequest struct {
	OrgID        snowflake.ID `json:"-"`
	Code         string       `json:"code" validate:"required,max=64"`
	Name         string       `json:"name" validate:"required,max=120"`
	Description  string       `json:"description" validate:"max=500"`
	Category     string       `json:"category" validate:"max=64"`
	Icon         string       `json:"icon" validate:"max=64"`
	XPReward     int64        `json:"xp_reward" validate:"gte=0"`
	Criteria     string       `json:"criteria" validate:"required,oneof=xp_total streak milestone"`
	Threshold    int64        `json:"threshold" validate:"gte=0"`
	MilestoneKey string       `json:"milestone_key" validate:"max=64"`
}

// UserBadgeView joins a grant with its catalog entry.
type UserBadgeView struct {
	BadgeID     snowflake.ID
	Code        string
	Name        string
	Description string
	Category    string
	Icon        string
	XPReward    int64
	AwardedAt   time.Time
}

type BadgeResponse struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Icon         string    `json:"icon"`
	XPReward     int64     `json:"xp_reward"`
	Criteria     string    `json:"criteria"`
	Threshold    int64     `json:"threshold,omitempty"`
	MilestoneKey string    `json:"milestone_key,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserBadgeResponse struct {
	BadgeID     string    `json:"badge_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Icon        string    `json:"icon"`
	XPReward    int64     `json:"xp_reward"`
	AwardedAt   time.Time `json:"awarded_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidCode         = errors.New("invalid_badge_code")
	ErrInvalidCriteria     = errors.New("invalid_badge_criteria")
	ErrInvalidThreshold    = errors.New("invalid_badge_threshold")
	ErrDuplicateCode       = errors.New("badge_code_exists")
)
