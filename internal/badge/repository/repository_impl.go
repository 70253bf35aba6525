package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/badge/domain"
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

func (r *repository) ListActive(ctx context.Context, orgID snowflake.ID) ([]domain.Badge, error) {
	var badges []domain.Badge
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id, code, name, description, category, icon, xp_reward,
		        criteria, threshold, milestone_key, active, created_at
		 FROM badges
		 WHERE org_id = ? AND active = ?
		 ORDER BY threshold ASC, code ASC`,
		orgID,
		true,
	).Scan(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID) ([]domain.Badge, error) {
	var badges []domain.Badge
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id, code, name, description, category, icon, xp_reward,
		        criteria, threshold, milestone_key, active, created_at
		 FROM badges
		 WHERE org_id = ?
		 ORDER BY category ASC, threshold ASC, code ASC`,
		orgID,
	).Scan(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *repository) Insert(ctx context.Context, badge domain.Badge) error {
	return r.db.WithContext(ctx).Create(&badge).Error
}

func (r *repository) InsertIfAbsent(ctx context.Context, badge domain.Badge) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(&badge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Grant inserts the user badge unless it is already held. false means no row was written.
func (r *repository) Grant(ctx context.Context, grant domain.UserBadge) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).
		Create(&grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]domain.UserBadgeView, error) {
	var items []domain.UserBadgeView
	err := r.db.WithContext(ctx).Raw(
		`SELECT b.id AS badge_id, b.code, b.name, b.description, b.category, b.icon,
		        b.xp_reward, ub.awarded_at
		 FROM user_badges ub
		 JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.org_id = ? AND ub.user_id = ?
		 ORDER BY ub.awarded_at ASC, b.code ASC`,
		orgID,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
