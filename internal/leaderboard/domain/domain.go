package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MetricXP     = "xp"
	MetricStreak = "streak"
)

type Query struct {
	OrgID   snowflake.ID
	ClassID snowflake.ID
	Metric  string
	Limit   int
}

// Row is one ranked user as read from the store, already ordered.
type Row struct {
	UserID      snowflake.ID
	DisplayName string
	Value       int64
	Longest     int64
}

type Entry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Value       int64  `json:"value"`
	Longest     int64  `json:"longest,omitempty"`
}

type Repository interface {
	TopXP(ctx context.Context, orgID, classID snowflake.ID, limit int) ([]Row, error)
	// TopStreaks ranks streaks whose last activity is on or after activeSince.
	TopStreaks(ctx context.Context, orgID, classID snowflake.ID, activeSince time.Time, limit int) ([]Row, error)
	ClassInOrg(ctx context.Context, orgID, classID snowflake.ID) (bool, error)
}

type Service interface {
	Rank(ctx context.Context, q Query) ([]Entry, error)
	// Refresh bypasses the cache and stores the recomputed board.
	Refresh(ctx context.Context, q Query) ([]Entry, error)
}

// NormalizeMetric maps the accepted spellings onto a metric, defaulting to xp.
func NormalizeMetric(metric string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "", MetricXP:
		return MetricXP, true
	case MetricStreak, "streaks":
		return MetricStreak, true
	default:
		return "", false
	}
}

// ClampLimit applies the default for non-positive limits and caps at max.
func ClampLimit(limit, def, max int) int {
	if def <= 0 {
		def = 10
	}
	if max <= 0 {
		max = 100
	}
	if def > max {
		def = max
	}
	switch {
	case limit <= 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidMetric       = errors.New("invalid_metric")
	ErrClassNotFound       = errors.New("class_not_found")
)
