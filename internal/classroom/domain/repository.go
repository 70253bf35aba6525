package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, class Class) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Class, error)
	FindByCode(ctx context.Context, code string) (*Class, error)
	List(ctx context.Context, filter ListFilter) ([]ClassSummary, error)
	UpdateCode(ctx context.Context, orgID, id snowflake.ID, code string) error
	Archive(ctx context.Context, orgID, id snowflake.ID) (bool, error)
	Enroll(ctx context.Context, enrollment Enrollment) (bool, error)
	IsEnrolled(ctx context.Context, orgID, classID, studentID snowflake.ID) (bool, error)
	Roster(ctx context.Context, orgID, classID snowflake.ID) ([]RosterRow, error)
}

type ListFilter struct {
	OrgID           snowflake.ID
	ClassID         snowflake.ID
	TeacherID       snowflake.ID
	StudentID       snowflake.ID
	IncludeArchived bool
}
