package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Find loads the record, locking the row when forUpdate is set and the dialect supports it.
	Find(ctx context.Context, orgID, userID snowflake.ID, forUpdate bool) (*Record, error)
	Insert(ctx context.Context, record Record) error
	Update(ctx context.Context, record Record) error
}
