package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertTeam(ctx context.Context, team Team) error
	FindTeam(ctx context.Context, orgID, id snowflake.ID) (*Team, error)
	ListTeams(ctx context.Context, filter TeamFilter) ([]TeamSummary, error)
	SaveTeam(ctx context.Context, team Team) error
	DeleteTeam(ctx context.Context, orgID, id snowflake.ID) (bool, error)

	InsertPlayer(ctx context.Context, player Player) error
	FindPlayer(ctx context.Context, orgID, id snowflake.ID) (*Player, error)
	ListPlayers(ctx context.Context, orgID, teamID snowflake.ID, includeInactive bool) ([]Player, error)
	SavePlayer(ctx context.Context, player Player) error
	DeletePlayer(ctx context.Context, orgID, id snowflake.ID) (bool, error)
}

type TeamFilter struct {
	OrgID   snowflake.ID
	TeamID  snowflake.ID
	CoachID snowflake.ID
	Season  string
}
