package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/classroom/domain"
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

func (r *repository) Insert(ctx context.Context, class domain.Class) error {
	return r.db.WithContext(ctx).Create(&class).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Class, error) {
	var class domain.Class
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id, teacher_id, name, code, created_at, updated_at, archived_at
		 FROM classes WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&class).Error
	if err != nil {
		return nil, err
	}
	if class.ID == 0 {
		return nil, nil
	}
	return &class, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*domain.Class, error) {
	var class domain.Class
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id, teacher_id, name, code, created_at, updated_at, archived_at
		 FROM classes WHERE code = ?`,
		code,
	).Scan(&class).Error
	if err != nil {
		return nil, err
	}
	if class.ID == 0 {
		return nil, nil
	}
	return &class, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.ClassSummary, error) {
	query := r.db.WithContext(ctx).
		Table("classes AS c").
		Select(`c.id, c.org_id, c.teacher_id, c.name, c.code, c.created_at, c.updated_at, c.archived_at,
			(SELECT COUNT(*) FROM class_enrollments e WHERE e.class_id = c.id) AS student_count`).
		Where("c.org_id = ?", filter.OrgID)
	if filter.ClassID != 0 {
		query = query.Where("c.id = ?", filter.ClassID)
	}
	if filter.TeacherID != 0 {
		query = query.Where("c.teacher_id = ?", filter.TeacherID)
	}
	if filter.StudentID != 0 {
		query = query.Where("EXISTS (SELECT 1 FROM class_enrollments s WHERE s.class_id = c.id AND s.student_id = ?)", filter.StudentID)
	}
	if !filter.IncludeArchived {
		query = query.Where("c.archived_at IS NULL")
	}

	var rows []domain.ClassSummary
	if err := query.Order("c.name ASC, c.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateCode(ctx context.Context, orgID, id snowflake.ID, code string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE classes SET code = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		code,
		time.Now().UTC(),
		orgID,
		id,
	).Error
}

func (r *repository) Archive(ctx context.Context, orgID, id snowflake.ID) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Exec(
		`UPDATE classes SET archived_at = ?, updated_at = ? WHERE org_id = ? AND id = ? AND archived_at IS NULL`,
		now,
		now,
		orgID,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Enroll(ctx context.Context, enrollment domain.Enrollment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(&enrollment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IsEnrolled(ctx context.Context, orgID, classID, studentID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Enrollment{}).
		Where("org_id = ? AND class_id = ? AND student_id = ?", orgID, classID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Roster(ctx context.Context, orgID, classID snowflake.ID) ([]domain.RosterRow, error) {
	var rows []domain.RosterRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT e.student_id, COALESCE(p.display_name, '') AS display_name, COALESCE(p.email, '') AS email, e.joined_at
		 FROM class_enrollments e
		 LEFT JOIN profiles p ON p.id = e.student_id
		 WHERE e.org_id = ? AND e.class_id = ?
		 ORDER BY display_name ASC, e.student_id ASC`,
		orgID,
		classID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
