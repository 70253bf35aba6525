package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/progress/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *repository) InsertIfAbsent(ctx context.Context, progress domain.Progress) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoNothing: true,
		}).
		Create(&progress)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Find(ctx context.Context, orgID, userID, moduleID snowflake.ID, forUpdate bool) (*domain.Progress, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ? AND module_id = ?", orgID, userID, moduleID)
	if forUpdate && db.SupportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []domain.Progress
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) Save(ctx context.Context, progress domain.Progress) error {
	return r.db.WithContext(ctx).
		Model(&domain.Progress{}).
		Where("id = ? AND org_id = ?", progress.ID, progress.OrgID).
		Updates(map[string]any{
			"current_step": progress.CurrentStep,
			"completed":    progress.Completed,
			"completed_at": progress.CompletedAt,
			"updated_at":   progress.UpdatedAt,
		}).Error
}

func (r *repository) UpsertSubmission(ctx context.Context, submission domain.StepSubmission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "progress_id"}, {Name: "step_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "submitted_at"}),
		}).
		Create(&submission).Error
}

func (r *repository) ListSubmissions(ctx context.Context, progressID snowflake.ID) ([]domain.StepSubmission, error) {
	var submissions []domain.StepSubmission
	err := r.db.WithContext(ctx).
		Where("progress_id = ?", progressID).
		Order("step_index ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *repository) ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]domain.Progress, error) {
	var rows []domain.Progress
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
