package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, assignment Assignment) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Assignment, error)
	List(ctx context.Context, filter ListFilter) ([]Assignment, error)
	Publish(ctx context.Context, orgID, id snowflake.ID) (bool, error)

	FindSubmission(ctx context.Context, orgID, assignmentID, studentID snowflake.ID, forUpdate bool) (*Submission, error)
	FindSubmissionByID(ctx context.Context, orgID, id snowflake.ID, forUpdate bool) (*Submission, error)
	InsertSubmission(ctx context.Context, submission Submission) error
	UpdateSubmission(ctx context.Context, submission Submission) error
	ListSubmissions(ctx context.Context, orgID, assignmentID snowflake.ID) ([]Submission, error)
}

type ListFilter struct {
	OrgID         snowflake.ID
	ClassID       snowflake.ID
	PublishedOnly bool
}
