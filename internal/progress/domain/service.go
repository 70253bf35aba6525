package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
)

type Service interface {
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
	Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error)
	Get(ctx context.Context, orgID, userID, moduleID snowflake.ID) (*ProgressResponse, error)
	ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]ProgressResponse, error)
}

type StartRequest struct {
	OrgID    snowflake.ID
	UserID   snowflake.ID
	ModuleID snowflake.ID
}

type StartResult struct {
	Progress ProgressResponse `json:"progress"`
	Created  bool             `json:"created"`
}

type UpdateRequest struct {
	OrgID     snowflake.ID
	UserID    snowflake.ID
	ModuleID  snowflake.ID
	StepIndex int
	StepData  json.RawMessage
}

type UpdateResult struct {
	Progress  ProgressResponse      `json:"progress"`
	Outcome   Outcome               `json:"outcome"`
	XPAwarded int64                 `json:"xp_awarded"`
	Badges    []badgedomain.Awarded `json:"badges"`
}

type ProgressResponse struct {
	ID          string     `json:"id"`
	ModuleID    string     `json:"module_id"`
	CurrentStep int        `json:"current_step"`
	TotalSteps  int        `json:"total_steps"`
	Percent     int        `json:"percent"`
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	// Steps is only filled for a single progress read.
	Steps []StepDataResponse `json:"steps,omitempty"`
}

type StepDataResponse struct {
	StepIndex   int             `json:"step_index"`
	Data        json.RawMessage `json:"data,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidModule       = errors.New("invalid_module")
	ErrInvalidStepIndex    = errors.New("invalid_step_index")
	ErrInvalidStepData     = errors.New("invalid_step_data")
	ErrModuleNotPublished  = errors.New("module_not_published")
	ErrProgressNotFound    = errors.New("progress_not_found")
	ErrProgressCompleted   = errors.New("progress_completed")
)
