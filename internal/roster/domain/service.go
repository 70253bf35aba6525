package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*TeamResponse, error)
	GetTeam(ctx context.Context, orgID, id snowflake.ID) (*TeamResponse, error)
	ListTeams(ctx context.Context, req ListTeamsRequest) ([]TeamResponse, error)
	UpdateTeam(ctx context.Context, req UpdateTeamRequest) (*TeamResponse, error)
	DeleteTeam(ctx context.Context, orgID, id snowflake.ID) error

	AddPlayer(ctx context.Context, req AddPlayerRequest) (*PlayerResponse, error)
	ListPlayers(ctx context.Context, orgID, teamID snowflake.ID, includeInactive bool) ([]PlayerResponse, error)
	UpdatePlayer(ctx context.Context, req UpdatePlayerRequest) (*PlayerResponse, error)
	RemovePlayer(ctx context.Context, orgID, id snowflake.ID) error
}

type CreateTeamRequest struct {
	OrgID   snowflake.ID `json:"-"`
	Name    string       `json:"name" validate:"required,max=120"`
	Sport   string       `json:"sport" validate:"max=64"`
	Season  string       `json:"season" validate:"max=32"`
	CoachID string       `json:"coach_id"`
}

type ListTeamsRequest struct {
	OrgID   snowflake.ID
	CoachID snowflake.ID
	Season  string
}

type UpdateTeamRequest struct {
	OrgID   snowflake.ID `json:"-"`
	ID      snowflake.ID `json:"-"`
	Name    *string      `json:"name" validate:"omitempty,min=1,max=120"`
	Sport   *string      `json:"sport" validate:"omitempty,max=64"`
	Season  *string      `json:"season" validate:"omitempty,max=32"`
	CoachID *string      `json:"coach_id"`
}

type AddPlayerRequest struct {
	OrgID        snowflake.ID `json:"-"`
	TeamID       snowflake.ID `json:"-"`
	Name         string       `json:"name" validate:"required,max=120"`
	JerseyNumber *int         `json:"jersey_number" validate:"omitempty,gte=0,lte=999"`
	Position     string       `json:"position" validate:"max=32"`
	ProfileID    string       `json:"profile_id"`
}

type UpdatePlayerRequest struct {
	OrgID        snowflake.ID `json:"-"`
	ID           snowflake.ID `json:"-"`
	Name         *string      `json:"name" validate:"omitempty,min=1,max=120"`
	JerseyNumber *int         `json:"jersey_number" validate:"omitempty,gte=0,lte=999"`
	ClearJersey  bool         `json:"clear_jersey"`
	Position     *string      `json:"position" validate:"omitempty,max=32"`
	Active       *bool        `json:"active"`
}

type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sport       string    `json:"sport"`
	Season      string    `json:"season"`
	CoachID     string    `json:"coach_id,omitempty"`
	PlayerCount int64     `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type PlayerResponse struct {
	ID           string    `json:"id"`
	TeamID       string    `json:"team_id"`
	ProfileID    string    `json:"profile_id,omitempty"`
	Name         string    `json:"name"`
	JerseyNumber *int      `json:"jersey_number,omitempty"`
	Position     string    `json:"position"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTeam         = errors.New("invalid_team")
	ErrInvalidPlayer       = errors.New("invalid_player")
	ErrInvalidCoach        = errors.New("invalid_coach")
	ErrInvalidProfile      = errors.New("invalid_profile")
	ErrTeamNotFound        = errors.New("team_not_found")
	ErrPlayerNotFound      = errors.New("player_not_found")
	ErrDuplicateTeam       = errors.New("team_exists")
	ErrJerseyTaken         = errors.New("jersey_number_taken")
)
