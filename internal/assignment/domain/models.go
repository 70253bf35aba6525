package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

const (
	SubmissionDraft     = "draft"
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
	SubmissionReturned  = "returned"
)

const DefaultMaxPoints = 100

type Assignment struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	OrgID        snowflake.ID  `gorm:"not null;index"`
	ClassID      snowflake.ID  `gorm:"not null;index"`
	ModuleID     *snowflake.ID `gorm:"index"`
	Title        string        `gorm:"type:text;not null"`
	Instructions string        `gorm:"type:text;not null;default:''"`
	DueAt        *time.Time    `gorm:"index"`
	MaxPoints    int           `gorm:"not null"`
	Status       string        `gorm:"type:text;not null"`
	CreatedBy    snowflake.ID  `gorm:"not null"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
}

func (Assignment) TableName() string { return "assignments" }

func (a Assignment) Published() bool { return a.Status == StatusPublished }

type Submission struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	OrgID        snowflake.ID   `gorm:"not null"`
	AssignmentID snowflake.ID   `gorm:"not null;uniqueIndex:ux_assignment_submissions_student,priority:1"`
	StudentID    snowflake.ID   `gorm:"not null;uniqueIndex:ux_assignment_submissions_student,priority:2"`
	Status       string         `gorm:"type:text;not null"`
	Content      datatypes.JSON
	Score        *int
	Feedback     string `gorm:"type:text;not null;default:''"`
	SubmittedAt  *time.Time
	GradedAt     *time.Time
	ReturnedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Submission) TableName() string { return "assignment_submissions" }

var transitions = map[string][]string{
	"":                  {SubmissionDraft, SubmissionSubmitted},
	SubmissionDraft:     {SubmissionDraft, SubmissionSubmitted},
	SubmissionSubmitted: {SubmissionGraded},
	SubmissionGraded:    {SubmissionGraded, SubmissionReturned},
	SubmissionReturned:  {SubmissionDraft, SubmissionSubmitted},
}

// CanTransition reports whether a submission may move from one status to
// another. The empty status stands for a submission that does not exist yet.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
