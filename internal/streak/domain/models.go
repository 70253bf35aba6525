package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/clock"
)

type Outcome string

const (
	OutcomeStarted        Outcome = "started"
	OutcomeContinued      Outcome = "continued"
	OutcomeReset          Outcome = "reset"
	OutcomeAlreadyCounted Outcome = "already_counted"
)

// Record is the consecutive-day counter of one user in one organization.
// LastActivityDate holds a calendar day at midnight UTC.
type Record struct {
	OrgID            snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"org_id"`
	UserID           snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CurrentCount     int64        `gorm:"not null;default:0" json:"current_count"`
	LongestCount     int64        `gorm:"not null;default:0" json:"longest_count"`
	LastActivityDate time.Time    `gorm:"type:date;not null" json:"last_activity_date"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

func (Record) TableName() string { return "streaks" }

// Advance applies one day of activity. prev is nil when the user has no record yet.
// A today earlier than the stored date is treated as already counted.
func Advance(prev *Record, today time.Time) (Record, Outcome) {
	if prev == nil {
		return Record{
			CurrentCount:     1,
			LongestCount:     1,
			LastActivityDate: today,
		}, OutcomeStarted
	}

	next := *prev
	diff := clock.DaysBetween(prev.LastActivityDate, today)
	switch {
	case diff <= 0:
		return next, OutcomeAlreadyCounted
	case diff == 1:
		next.CurrentCount = prev.CurrentCount + 1
		next.LastActivityDate = today
		if next.CurrentCount > next.LongestCount {
			next.LongestCount = next.CurrentCount
		}
		return next, OutcomeContinued
	default:
		next.CurrentCount = 1
		next.LastActivityDate = today
		if next.LongestCount < 1 {
			next.LongestCount = 1
		}
		return next, OutcomeReset
	}
}

// IsActive reports whether the streak still counts today, i.e. activity today or yesterday.
func (r Record) IsActive(today time.Time) bool {
	diff := clock.DaysBetween(r.LastActivityDate, today)
	return diff >= 0 && diff <= 1
}
