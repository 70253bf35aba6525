package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Total is the running XP balance of one user in one organization.
type Total struct {
	OrgID     snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"org_id"`
	UserID    snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Total     int64        `gorm:"not null;default:0" json:"total"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Total) TableName() string { return "xp_totals" }

// Event is the append-only record of one award. Metadata is stored as received.
type Event struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID   `gorm:"not null;index:ix_xp_events_org_user,priority:1" json:"org_id"`
	UserID        snowflake.ID   `gorm:"not null;index:ix_xp_events_org_user,priority:2" json:"user_id"`
	Action        string         `gorm:"type:text;not null" json:"action"`
	Points        int64          `gorm:"not null" json:"points"`
	SkillCategory string         `gorm:"type:text;not null;default:''" json:"skill_category"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "xp_events" }

type CategoryTotal struct {
	SkillCategory string
	Points        int64
}
