package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleCoach   = "coach"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RolePlayer  = "player"
	RoleViewer  = "viewer"
)

// Roles lists every membership role in descending privilege.
var Roles = []string{RoleOwner, RoleAdmin, RoleCoach, RoleTeacher, RoleStudent, RolePlayer, RoleViewer}

func NormalizeRole(role string) (string, bool) {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range Roles {
		if r == role {
			return role, true
		}
	}
	return "", false
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	GetByID(ctx context.Context, orgID snowflake.ID) (*OrganizationResponse, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListResponseItem, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]MemberResponse, error)
	AddMember(ctx context.Context, orgID snowflake.ID, req AddMemberRequest) (*MemberResponse, error)
	EnsureMember(ctx context.Context, orgID, userID snowflake.ID, role string) error
	UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error
	RoleOf(ctx context.Context, orgID, userID snowflake.ID) (string, error)
}

type CreateOrganizationRequest struct {
	Name string
}

type AddMemberRequest struct {
	UserID snowflake.ID
	Role   string
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type OrganizationListResponseItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrNotFound            = errors.New("organization_not_found")
	ErrNotMember           = errors.New("not_member")
	ErrAlreadyMember       = errors.New("already_member")
	ErrLastOwner           = errors.New("last_owner")
)
