package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateModuleRequest) (*ModuleResponse, error)
	Get(ctx context.Context, orgID, id snowflake.ID) (*ModuleResponse, error)
	List(ctx context.Context, req ListModulesRequest) (*ListModulesResponse, error)
	Update(ctx context.Context, req UpdateModuleRequest) (*ModuleResponse, error)
	Publish(ctx context.Context, orgID, id snowflake.ID) (*ModuleResponse, error)
	Delete(ctx context.Context, orgID, id snowflake.ID) error
}

type CreateModuleRequest struct {
	OrgID           snowflake.ID `json:"-"`
	AuthorID        snowflake.ID `json:"-"`
	Title           string       `json:"title" validate:"required,max=200"`
	Description     string       `json:"description" validate:"max=5000"`
	Difficulty      string       `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes int          `json:"duration_minutes" validate:"gte=0,lte=10000"`
	Steps           []Step       `json:"steps" validate:"max=200,dive"`
}

type UpdateModuleRequest struct {
	OrgID           snowflake.ID `json:"-"`
	ID              snowflake.ID `json:"-"`
	Title           *string      `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string      `json:"description" validate:"omitempty,max=5000"`
	Difficulty      *string      `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes *int         `json:"duration_minutes" validate:"omitempty,gte=0,lte=10000"`
	Steps           *[]Step      `json:"steps" validate:"omitempty,max=200,dive"`
}

type ListModulesRequest struct {
	OrgID         snowflake.ID
	PublishedOnly bool
	Difficulty    string
	pagination.Pagination
}

type ModuleResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	Difficulty      string     `json:"difficulty"`
	DurationMinutes int        `json:"duration_minutes"`
	Steps           []Step     `json:"steps"`
	TotalSteps      int        `json:"total_steps"`
	AuthorID        string     `json:"author_id"`
	Published       bool       `json:"published"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ListModulesResponse struct {
	Modules  []ModuleResponse    `json:"modules"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAuthor       = errors.New("invalid_author")
	ErrInvalidModule       = errors.New("invalid_module")
	ErrNotFound            = errors.New("module_not_found")
	ErrModulePublished     = errors.New("module_published")
	ErrNoSteps             = errors.New("module_has_no_steps")
)
