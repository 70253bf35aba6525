package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/leaderboard/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) TopXP(ctx context.Context, orgID, classID snowflake.ID, limit int) ([]domain.Row, error) {
	query := r.db.WithContext(ctx).
		Table("xp_totals AS t").
		Select("t.user_id, COALESCE(p.display_name, '') AS display_name, t.total AS value").
		Joins("LEFT JOIN profiles p ON p.id = t.user_id").
		Where("t.org_id = ?", orgID)
	if classID != 0 {
		query = query.Joins("JOIN class_enrollments e ON e.student_id = t.user_id AND e.class_id = ?", classID)
	}

	var rows []domain.Row
	err := query.
		Order("t.total DESC").
		Order("t.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopStreaks(ctx context.Context, orgID, classID snowflake.ID, activeSince time.Time, limit int) ([]domain.Row, error) {
	query := r.db.WithContext(ctx).
		Table("streaks AS s").
		Select("s.user_id, COALESCE(p.display_name, '') AS display_name, s.current_count AS value, s.longest_count AS longest").
		Joins("LEFT JOIN profiles p ON p.id = s.user_id").
		Where("s.org_id = ? AND s.last_activity_date >= ?", orgID, activeSince)
	if classID != 0 {
		query = query.Joins("JOIN class_enrollments e ON e.student_id = s.user_id AND e.class_id = ?", classID)
	}

	var rows []domain.Row
	err := query.
		Order("s.current_count DESC").
		Order("s.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ClassInOrg(ctx context.Context, orgID, classID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM classes WHERE id = ? AND org_id = ?`,
		classID,
		orgID,
	).Scan(&count).Error
	return count > 0, err
}
