package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// EnsureProfile returns the profile for an identity subject, creating it on first sight.
	EnsureProfile(ctx context.Context, req EnsureProfileRequest) (*Profile, error)
	GetByID(ctx context.Context, id snowflake.ID) (*ProfileResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateProfileRequest) (*ProfileResponse, error)
}

type EnsureProfileRequest struct {
	ExternalID  string
	Email       string
	DisplayName string
}

type UpdateProfileRequest struct {
	DisplayName  *string `json:"display_name"`
	DefaultOrgID *string `json:"default_org_id"`
}

type ProfileResponse struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	DefaultOrgID string    `json:"default_org_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrInvalidExternalID = errors.New("invalid_external_id")
	ErrInvalidProfile    = errors.New("invalid_profile")
	ErrInvalidName       = errors.New("invalid_display_name")
	ErrInvalidDefaultOrg = errors.New("invalid_default_org")
	ErrNotFound          = errors.New("profile_not_found")
)
