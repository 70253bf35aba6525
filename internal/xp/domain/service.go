package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	ActionCompleteStep     = "complete_step"
	ActionFinishModule     = "finish_module"
	ActionStreakDay        = "streak_day"
	ActionSubmitAssignment = "submit_assignment"
	ActionPerfectScore     = "perfect_score"
	ActionDailyLogin       = "daily_login"
)

// BadgeRewardPrefix marks ledger events produced by badge rewards.
const BadgeRewardPrefix = "badge:"

// Crediter applies points inside the caller's transaction without evaluating badges.
type Crediter interface {
	Credit(ctx context.Context, tx *gorm.DB, req CreditRequest) error
}

type Service interface {
	Crediter
	Award(ctx context.Context, req AwardRequest) (*AwardResult, error)
	GetTotal(ctx context.Context, orgID, userID snowflake.ID) (int64, error)
	Summary(ctx context.Context, orgID, userID snowflake.ID) (*SummaryResponse, error)
	ListEvents(ctx context.Context, req ListEventsRequest) (*ListEventsResponse, error)
}

type AwardRequest struct {
	OrgID         snowflake.ID
	UserID        snowflake.ID
	Action        string
	SkillCategory string
	Metadata      json.RawMessage
}

type AwardResult struct {
	Action string                `json:"action"`
	Delta  int64                 `json:"delta"`
	Total  int64                 `json:"total"`
	Badges []badgedomain.Awarded `json:"badges"`
}

type CreditRequest struct {
	OrgID    snowflake.ID
	UserID   snowflake.ID
	Source   string
	Points   int64
	Metadata json.RawMessage
}

type ListEventsRequest struct {
	OrgID  snowflake.ID
	UserID snowflake.ID
	pagination.Pagination
}

type Level struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
	MinXP int64  `json:"min_xp"`
}

type SummaryResponse struct {
	Total      int64            `json:"total"`
	Level      Level            `json:"level"`
	NextLevel  *Level           `json:"next_level,omitempty"`
	ToNext     int64            `json:"xp_to_next_level"`
	Categories map[string]int64 `json:"categories"`
}

type EventResponse struct {
	ID            string          `json:"id"`
	Action        string          `json:"action"`
	Points        int64           `json:"points"`
	SkillCategory string          `json:"skill_category,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ListEventsResponse struct {
	Events   []EventResponse     `json:"events"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidAction       = errors.New("invalid_action")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPoints       = errors.New("invalid_points")
	ErrInvalidMetadata     = errors.New("invalid_metadata")
	ErrInvalidCategory     = errors.New("invalid_skill_category")
)
