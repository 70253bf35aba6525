package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Profile is the local record of an identity provider subject.
type Profile struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	ExternalID   string        `gorm:"size:191;not null;uniqueIndex:ux_profiles_external_id" json:"external_id"`
	DisplayName  string        `gorm:"type:text;not null;default:''" json:"display_name"`
	Email        string        `gorm:"type:text;not null;default:''" json:"email"`
	DefaultOrgID *snowflake.ID `json:"default_org_id,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
