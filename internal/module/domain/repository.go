package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, module Module) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Module, error)
	SlugExists(ctx context.Context, orgID snowflake.ID, slug string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Module, error)
	Save(ctx context.Context, module *Module) error
	SoftDelete(ctx context.Context, orgID, id snowflake.ID) (bool, error)
}

type ListFilter struct {
	OrgID         snowflake.ID
	PublishedOnly bool
	Difficulty    string
	BeforeID      snowflake.ID
	Limit         int
}
