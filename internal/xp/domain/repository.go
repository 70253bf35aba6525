package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Increment adds delta to the stored total, creating the row on first award.
	Increment(ctx context.Context, orgID, userID snowflake.ID, delta int64, at time.Time) error
	InsertEvent(ctx context.Context, event Event) error
	GetTotal(ctx context.Context, orgID, userID snowflake.ID) (int64, error)
	CategoryTotals(ctx context.Context, orgID, userID snowflake.ID) ([]CategoryTotal, error)
	ListEvents(ctx context.Context, orgID, userID, beforeID snowflake.ID, limit int) ([]Event, error)
}
