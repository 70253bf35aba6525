package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateClassRequest) (*ClassResponse, error)
	Get(ctx context.Context, orgID, id snowflake.ID) (*ClassResponse, error)
	List(ctx context.Context, req ListClassesRequest) ([]ClassResponse, error)
	Join(ctx context.Context, req JoinRequest) (*JoinResult, error)
	Roster(ctx context.Context, orgID, classID snowflake.ID) ([]RosterEntry, error)
	RegenerateCode(ctx context.Context, orgID, classID snowflake.ID) (*ClassResponse, error)
	Archive(ctx context.Context, orgID, classID snowflake.ID) error
	IsEnrolled(ctx context.Context, orgID, classID, studentID snowflake.ID) (bool, error)
}

type CreateClassRequest struct {
	OrgID     snowflake.ID `json:"-"`
	TeacherID snowflake.ID `json:"-"`
	Name      string       `json:"name" validate:"required,max=120"`
}

type ListClassesRequest struct {
	OrgID           snowflake.ID
	TeacherID       snowflake.ID
	StudentID       snowflake.ID
	IncludeArchived bool
}

type JoinRequest struct {
	OrgID     snowflake.ID `json:"-"`
	StudentID snowflake.ID `json:"-"`
	Code      string       `json:"code" validate:"required"`
}

type JoinResult struct {
	Class  ClassResponse `json:"class"`
	Joined bool          `json:"joined"`
}

type ClassResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	TeacherID    string     `json:"teacher_id"`
	StudentCount int64      `json:"student_count"`
	Archived     bool       `json:"archived"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type RosterEntry struct {
	StudentID   string    `json:"student_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTeacher      = errors.New("invalid_teacher")
	ErrInvalidStudent      = errors.New("invalid_student")
	ErrInvalidClass        = errors.New("invalid_class")
	ErrInvalidCode         = errors.New("invalid_class_code")
	ErrNotFound            = errors.New("class_not_found")
	ErrArchived            = errors.New("class_archived")
	ErrCodeExhausted       = errors.New("class_code_unavailable")
)
