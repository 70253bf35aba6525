package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Team struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	OrgID     snowflake.ID  `gorm:"not null;uniqueIndex:ux_teams_org_name_season,priority:1"`
	Name      string        `gorm:"size:120;not null;uniqueIndex:ux_teams_org_name_season,priority:2"`
	Sport     string        `gorm:"type:text;not null;default:''"`
	Season    string        `gorm:"size:32;not null;default:'';uniqueIndex:ux_teams_org_name_season,priority:3"`
	CoachID   *snowflake.ID `gorm:"index"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

func (Team) TableName() string { return "teams" }

type Player struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	OrgID        snowflake.ID  `gorm:"not null;index"`
	TeamID       snowflake.ID  `gorm:"not null;uniqueIndex:ux_players_team_jersey,priority:1"`
	ProfileID    *snowflake.ID `gorm:"index"`
	Name         string        `gorm:"type:text;not null"`
	JerseyNumber *int          `gorm:"uniqueIndex:ux_players_team_jersey,priority:2"`
	Position     string        `gorm:"type:text;not null;default:''"`
	Active       bool          `gorm:"not null"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
}

func (Player) TableName() string { return "players" }

// TeamSummary is a team row with its active player count.
type TeamSummary struct {
	Team
	PlayerCount int64
}
