package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, profile Profile) error
	FindByID(ctx context.Context, id snowflake.ID) (*Profile, error)
	FindByExternalID(ctx context.Context, externalID string) (*Profile, error)
	UpdateContact(ctx context.Context, id snowflake.ID, email, displayName string) error
	UpdateDisplayName(ctx context.Context, id snowflake.ID, displayName string) error
	UpdateDefaultOrg(ctx context.Context, id, orgID snowflake.ID) error
	SetDefaultOrgIfEmpty(ctx context.Context, id, orgID snowflake.ID) (bool, error)
}
