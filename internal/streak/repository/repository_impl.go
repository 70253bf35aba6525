package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/streak/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, orgID, userID snowflake.ID, forUpdate bool) (*domain.Record, error) {
	query := `SELECT org_id, user_id, current_count, longest_count, last_activity_date, updated_at
		 FROM streaks WHERE org_id = ? AND user_id = ?`
	if forUpdate && db.SupportsRowLocks(r.db) {
		query += " FOR UPDATE"
	}

	var record domain.Record
	err := r.db.WithContext(ctx).Raw(query, orgID, userID).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.UserID == 0 {
		return nil, nil
	}
	record.LastActivityDate = record.LastActivityDate.UTC()
	return &record, nil
}

func (r *repository) Insert(ctx context.Context, record domain.Record) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO streaks (org_id, user_id, current_count, longest_count, last_activity_date, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.OrgID,
		record.UserID,
		record.CurrentCount,
		record.LongestCount,
		record.LastActivityDate,
		record.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, record domain.Record) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE streaks
		 SET current_count = ?, longest_count = ?, last_activity_date = ?, updated_at = ?
		 WHERE org_id = ? AND user_id = ?`,
		record.CurrentCount,
		record.LongestCount,
		record.LastActivityDate,
		record.UpdatedAt,
		record.OrgID,
		record.UserID,
	).Error
}
