package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/profile/domain"
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

func (r *repository) InsertIfAbsent(ctx context.Context, profile domain.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(&profile).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, external_id, display_name, email, default_org_id, created_at, updated_at
		 FROM profiles WHERE id = ?`,
		id,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, external_id, display_name, email, default_org_id, created_at, updated_at
		 FROM profiles WHERE external_id = ?`,
		externalID,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repository) UpdateContact(ctx context.Context, id snowflake.ID, email, displayName string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE profiles SET email = ?, display_name = ?, updated_at = ? WHERE id = ?`,
		email,
		displayName,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repository) UpdateDisplayName(ctx context.Context, id snowflake.ID, displayName string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE profiles SET display_name = ?, updated_at = ? WHERE id = ?`,
		displayName,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repository) UpdateDefaultOrg(ctx context.Context, id, orgID snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE profiles SET default_org_id = ?, updated_at = ? WHERE id = ?`,
		orgID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repository) SetDefaultOrgIfEmpty(ctx context.Context, id, orgID snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE profiles SET default_org_id = ?, updated_at = ?
		 WHERE id = ? AND default_org_id IS NULL`,
		orgID,
		time.Now().UTC(),
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
