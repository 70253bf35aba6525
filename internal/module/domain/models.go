package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type Step struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"max=20000"`
	Kind    string `json:"kind,omitempty" validate:"max=32"`
}

// Module is an ordered list of learning steps authored inside an organization.
type Module struct {
	ID              snowflake.ID              `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID              `gorm:"not null;uniqueIndex:ux_modules_org_slug,priority:1" json:"org_id"`
	AuthorID        snowflake.ID              `gorm:"not null" json:"author_id"`
	Title           string                    `gorm:"type:text;not null" json:"title"`
	Slug            string                    `gorm:"size:160;not null;uniqueIndex:ux_modules_org_slug,priority:2" json:"slug"`
	Description     string                    `gorm:"type:text;not null;default:''" json:"description"`
	Difficulty      string                    `gorm:"type:text;not null" json:"difficulty"`
	DurationMinutes int                       `gorm:"not null;default:0" json:"duration_minutes"`
	Steps           datatypes.JSONSlice[Step] `gorm:"not null" json:"steps"`
	PublishedAt     *time.Time                `json:"published_at,omitempty"`
	CreatedAt       time.Time                 `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                 `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt            `gorm:"index" json:"-"`
}

func (Module) TableName() string { return "modules" }

func (m Module) Published() bool { return m.PublishedAt != nil }
