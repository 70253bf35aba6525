package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateAssignmentRequest) (*AssignmentResponse, error)
	Get(ctx context.Context, orgID, id snowflake.ID) (*AssignmentResponse, error)
	List(ctx context.Context, req ListAssignmentsRequest) ([]AssignmentResponse, error)
	Publish(ctx context.Context, orgID, id snowflake.ID) (*AssignmentResponse, error)

	SaveDraft(ctx context.Context, req SubmitRequest) (*SubmissionResponse, error)
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	Grade(ctx context.Context, req GradeRequest) (*GradeResult, error)
	Return(ctx context.Context, orgID, submissionID snowflake.ID) (*SubmissionResponse, error)
	GetSubmission(ctx context.Context, orgID, assignmentID, studentID snowflake.ID) (*SubmissionResponse, error)
	ListSubmissions(ctx context.Context, orgID, assignmentID snowflake.ID) ([]SubmissionResponse, error)
}

type CreateAssignmentRequest struct {
	OrgID        snowflake.ID `json:"-"`
	CreatedBy    snowflake.ID `json:"-"`
	ClassID      string       `json:"class_id" validate:"required"`
	ModuleID     string       `json:"module_id"`
	Title        string       `json:"title" validate:"required,max=200"`
	Instructions string       `json:"instructions" validate:"max=10000"`
	DueAt        *time.Time   `json:"due_at"`
	MaxPoints    int          `json:"max_points" validate:"gte=0,lte=1000"`
}

type ListAssignmentsRequest struct {
	OrgID         snowflake.ID
	ClassID       snowflake.ID
	PublishedOnly bool
}

type SubmitRequest struct {
	OrgID        snowflake.ID
	AssignmentID snowflake.ID
	StudentID    snowflake.ID
	Content      json.RawMessage
}

type GradeRequest struct {
	OrgID        snowflake.ID `json:"-"`
	SubmissionID snowflake.ID `json:"-"`
	Score        *int         `json:"score" validate:"required,gte=0"`
	Feedback     string       `json:"feedback" validate:"max=5000"`
}

type SubmitResult struct {
	Submission SubmissionResponse `json:"submission"`
	XPAwarded  int64              `json:"xp_awarded"`
}

type GradeResult struct {
	Submission SubmissionResponse `json:"submission"`
	Perfect    bool               `json:"perfect"`
	XPAwarded  int64              `json:"xp_awarded"`
}

type AssignmentResponse struct {
	ID           string     `json:"id"`
	ClassID      string     `json:"class_id"`
	ModuleID     string     `json:"module_id,omitempty"`
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	MaxPoints    int        `json:"max_points"`
	Status       string     `json:"status"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

type SubmissionResponse struct {
	ID           string          `json:"id"`
	AssignmentID string          `json:"assignment_id"`
	StudentID    string          `json:"student_id"`
	Status       string          `json:"status"`
	Content      json.RawMessage `json:"content,omitempty"`
	Score        *int            `json:"score,omitempty"`
	Feedback     string          `json:"feedback,omitempty"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
	GradedAt     *time.Time      `json:"graded_at,omitempty"`
	ReturnedAt   *time.Time      `json:"returned_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAssignment   = errors.New("invalid_assignment")
	ErrInvalidClass        = errors.New("invalid_class")
	ErrInvalidModule       = errors.New("invalid_module")
	ErrInvalidStudent      = errors.New("invalid_student")
	ErrInvalidContent      = errors.New("invalid_submission_content")
	ErrInvalidScore        = errors.New("invalid_score")
	ErrNotFound            = errors.New("assignment_not_found")
	ErrSubmissionNotFound  = errors.New("submission_not_found")
	ErrNotPublished        = errors.New("assignment_not_published")
	ErrNotEnrolled         = errors.New("student_not_enrolled")
	ErrInvalidTransition   = errors.New("invalid_submission_transition")
)
