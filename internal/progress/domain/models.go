package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Outcome string

const (
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeCompleted Outcome = "completed"
	OutcomeUnchanged Outcome = "unchanged"
)

// Progress is one user's position inside one module. TotalSteps is captured
// when the module is started and never follows later module edits.
type Progress struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OrgID       snowflake.ID `gorm:"not null"`
	UserID      snowflake.ID `gorm:"not null;uniqueIndex:ux_module_progress_user_module,priority:1"`
	ModuleID    snowflake.ID `gorm:"not null;uniqueIndex:ux_module_progress_user_module,priority:2"`
	CurrentStep int          `gorm:"not null;default:0"`
	TotalSteps  int          `gorm:"not null"`
	Completed   bool         `gorm:"not null"`
	StartedAt   time.Time    `gorm:"not null"`
	CompletedAt *time.Time
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Progress) TableName() string { return "module_progress" }

// StepSubmission keeps the latest answer payload for a step. Data is never decoded.
type StepSubmission struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	OrgID       snowflake.ID   `gorm:"not null"`
	ProgressID  snowflake.ID   `gorm:"not null;uniqueIndex:ux_step_submissions_progress_step,priority:1"`
	StepIndex   int            `gorm:"not null;uniqueIndex:ux_step_submissions_progress_step,priority:2"`
	Data        datatypes.JSON
	SubmittedAt time.Time `gorm:"not null"`
}

func (StepSubmission) TableName() string { return "step_submissions" }

// Advance moves the position to stepIndex. The position never moves backward;
// a lower index is accepted and leaves the position unchanged.
func (p Progress) Advance(stepIndex int, now time.Time) (Progress, Outcome) {
	next := p
	if stepIndex <= p.CurrentStep {
		return next, OutcomeUnchanged
	}
	next.CurrentStep = stepIndex
	next.UpdatedAt = now
	if next.CurrentStep >= next.TotalSteps {
		next.CurrentStep = next.TotalSteps
		next.Completed = true
		completedAt := now
		next.CompletedAt = &completedAt
		return next, OutcomeCompleted
	}
	return next, OutcomeAdvanced
}

// Percent is the completed share of the snapshot, 0..100.
func (p Progress) Percent() int {
	if p.TotalSteps <= 0 {
		return 0
	}
	if p.Completed {
		return 100
	}
	return p.CurrentStep * 100 / p.TotalSteps
}
