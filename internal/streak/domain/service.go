package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
)

type Service interface {
	Update(ctx context.Context, orgID, userID snowflake.ID) (*UpdateResult, error)
	Get(ctx context.Context, orgID, userID snowflake.ID) (*StreakResponse, error)
}

type UpdateResult struct {
	Current   int64                 `json:"current"`
	Longest   int64                 `json:"longest"`
	Outcome   Outcome               `json:"outcome"`
	Continued bool                  `json:"continued"`
	XPAwarded int64                 `json:"xp_awarded"`
	Badges    []badgedomain.Awarded `json:"badges"`
}

type StreakResponse struct {
	Current          int64  `json:"current"`
	Longest          int64  `json:"longest"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
	Active           bool   `json:"active"`
}

const DateLayout = "2006-01-02"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrUpdateInProgress    = errors.New("streak_update_in_progress")
)
