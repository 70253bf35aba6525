package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OrganizationListItem struct {
	ID        snowflake.ID
	Name      string
	Slug      string
	Role      string
	CreatedAt time.Time
}

type MemberListItem struct {
	UserID      snowflake.ID
	Role        string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	FindByID(ctx context.Context, orgID snowflake.ID) (*Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	AddMember(ctx context.Context, member OrganizationMember) error
	InsertMemberIfAbsent(ctx context.Context, member OrganizationMember) (bool, error)
	UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) (bool, error)
	FindMember(ctx context.Context, orgID, userID snowflake.ID) (*OrganizationMember, error)
	CountOwners(ctx context.Context, orgID snowflake.ID) (int64, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]MemberListItem, error)
}
