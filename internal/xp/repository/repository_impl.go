package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/xp/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Increment(ctx context.Context, orgID, userID snowflake.ID, delta int64, at time.Time) error {
	row := domain.Total{
		OrgID:     orgID,
		UserID:    userID,
		Total:     delta,
		UpdatedAt: at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "org_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total":      gorm.Expr("xp_totals.total + ?", delta),
				"updated_at": at,
			}),
		}).
		Create(&row).Error
}

func (r *repository) InsertEvent(ctx context.Context, event domain.Event) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *repository) GetTotal(ctx context.Context, orgID, userID snowflake.ID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(total), 0) FROM xp_totals WHERE org_id = ? AND user_id = ?`,
		orgID,
		userID,
	).Scan(&total).Error
	return total, err
}

func (r *repository) CategoryTotals(ctx context.Context, orgID, userID snowflake.ID) ([]domain.CategoryTotal, error) {
	var items []domain.CategoryTotal
	err := r.db.WithContext(ctx).Raw(
		`SELECT skill_category, SUM(points) AS points
		 FROM xp_events
		 WHERE org_id = ? AND user_id = ? AND skill_category <> ''
		 GROUP BY skill_category
		 ORDER BY skill_category ASC`,
		orgID,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListEvents(ctx context.Context, orgID, userID, beforeID snowflake.ID, limit int) ([]domain.Event, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("org_id = ? AND user_id = ?", orgID, userID)
	if beforeID != 0 {
		query = query.Where("id < ?", beforeID)
	}

	var events []domain.Event
	err := query.Order("id DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
