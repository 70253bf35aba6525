package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CodeLength is the number of characters in a class join code.
const CodeLength = 6

type Class struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OrgID      snowflake.ID `gorm:"not null;index"`
	TeacherID  snowflake.ID `gorm:"not null"`
	Name       string       `gorm:"type:text;not null"`
	Code       string       `gorm:"size:16;not null;uniqueIndex"`
	CreatedAt  time.Time    `gorm:"not null"`
	UpdatedAt  time.Time    `gorm:"not null"`
	ArchivedAt *time.Time
}

func (Class) TableName() string { return "classes" }

func (c Class) Archived() bool { return c.ArchivedAt != nil }

type Enrollment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null"`
	ClassID   snowflake.ID `gorm:"not null;uniqueIndex:ux_class_enrollments_class_student,priority:1"`
	StudentID snowflake.ID `gorm:"not null;uniqueIndex:ux_class_enrollments_class_student,priority:2"`
	JoinedAt  time.Time    `gorm:"not null"`
}

func (Enrollment) TableName() string { return "class_enrollments" }

// ClassSummary is a class row with its enrollment count.
type ClassSummary struct {
	Class
	StudentCount int64
}

// RosterRow is an enrolled student joined with the profile.
type RosterRow struct {
	StudentID   snowflake.ID
	DisplayName string
	Email       string
	JoinedAt    time.Time
}
