package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, progress Progress) (bool, error)
	Find(ctx context.Context, orgID, userID, moduleID snowflake.ID, forUpdate bool) (*Progress, error)
	Save(ctx context.Context, progress Progress) error
	UpsertSubmission(ctx context.Context, submission StepSubmission) error
	ListSubmissions(ctx context.Context, progressID snowflake.ID) ([]StepSubmission, error)
	ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]Progress, error)
}
