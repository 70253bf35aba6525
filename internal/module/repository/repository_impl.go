package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/module/domain"
	"gorm.io/gorm"
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

func (r *repository) Insert(ctx context.Context, module domain.Module) error {
	return r.db.WithContext(ctx).Create(&module).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Module, error) {
	var module domain.Module
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&module).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *repository) SlugExists(ctx context.Context, orgID snowflake.ID, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&domain.Module{}).
		Where("org_id = ? AND slug = ?", orgID, slug).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Module, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", filter.OrgID)
	if filter.PublishedOnly {
		query = query.Where("published_at IS NOT NULL")
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.BeforeID != 0 {
		query = query.Where("id < ?", filter.BeforeID)
	}

	var modules []domain.Module
	err := query.Order("id DESC").Limit(filter.Limit).Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *repository) Save(ctx context.Context, module *domain.Module) error {
	return r.db.WithContext(ctx).Save(module).Error
}

func (r *repository) SoftDelete(ctx context.Context, orgID, id snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Module{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
