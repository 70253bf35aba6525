package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/organization/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, slug, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.Metadata,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, orgID snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at
		 FROM organizations WHERE id = ?`,
		orgID,
	).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM organizations WHERE slug = ?`,
		slug,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}

func (r *repository) InsertMemberIfAbsent(ctx context.Context, member domain.OrganizationMember) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE organization_members SET role = ? WHERE org_id = ? AND user_id = ?`,
		role,
		orgID,
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindMember(ctx context.Context, orgID, userID snowflake.ID) (*domain.OrganizationMember, error) {
	var member domain.OrganizationMember
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id, user_id, role, created_at
		 FROM organization_members
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repository) CountOwners(ctx context.Context, orgID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM organization_members WHERE org_id = ? AND role = ?`,
		orgID,
		domain.RoleOwner,
	).Scan(&count).Error
	return count, err
}

func (r *repository) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListItem, error) {
	var items []domain.OrganizationListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT o.id, o.name, o.slug, m.role, o.created_at
		 FROM organizations o
		 JOIN organization_members m ON m.org_id = o.id
		 WHERE m.user_id = ?
		 ORDER BY o.created_at ASC, o.id ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) ListMembers(ctx context.Context, orgID snowflake.ID) ([]domain.MemberListItem, error) {
	var items []domain.MemberListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.user_id, m.role, COALESCE(p.display_name, '') AS display_name,
		        COALESCE(p.email, '') AS email, m.created_at
		 FROM organization_members m
		 LEFT JOIN profiles p ON p.id = m.user_id
		 WHERE m.org_id = ?
		 ORDER BY m.created_at ASC, m.user_id ASC`,
		orgID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
