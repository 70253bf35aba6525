package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/assignment/domain"
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

func (r *repository) Insert(ctx context.Context, assignment domain.Assignment) error {
	return r.db.WithContext(ctx).Create(&assignment).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Assignment, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", filter.OrgID)
	if filter.ClassID != 0 {
		query = query.Where("class_id = ?", filter.ClassID)
	}
	if filter.PublishedOnly {
		query = query.Where("status = ?", domain.StatusPublished)
	}

	var items []domain.Assignment
	if err := query.Order("due_at IS NULL, due_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Publish(ctx context.Context, orgID, id snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Assignment{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, domain.StatusDraft).
		Updates(map[string]any{
			"status":     domain.StatusPublished,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindSubmission(ctx context.Context, orgID, assignmentID, studentID snowflake.ID, forUpdate bool) (*domain.Submission, error) {
	return r.findSubmission(ctx, forUpdate, "org_id = ? AND assignment_id = ? AND student_id = ?", orgID, assignmentID, studentID)
}

func (r *repository) FindSubmissionByID(ctx context.Context, orgID, id snowflake.ID, forUpdate bool) (*domain.Submission, error) {
	return r.findSubmission(ctx, forUpdate, "org_id = ? AND id = ?", orgID, id)
}

func (r *repository) findSubmission(ctx context.Context, forUpdate bool, where string, args ...any) (*domain.Submission, error) {
	query := r.db.WithContext(ctx).Where(where, args...)
	if forUpdate && db.SupportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []domain.Submission
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) InsertSubmission(ctx context.Context, submission domain.Submission) error {
	return r.db.WithContext(ctx).Create(&submission).Error
}

func (r *repository) UpdateSubmission(ctx context.Context, submission domain.Submission) error {
	return r.db.WithContext(ctx).
		Model(&domain.Submission{}).
		Where("org_id = ? AND id = ?", submission.OrgID, submission.ID).
		Select("status", "content", "score", "feedback", "submitted_at", "graded_at", "returned_at", "updated_at").
		Updates(&submission).Error
}

func (r *repository) ListSubmissions(ctx context.Context, orgID, assignmentID snowflake.ID) ([]domain.Submission, error) {
	var rows []domain.Submission
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND assignment_id = ?", orgID, assignmentID).
		Order("submitted_at IS NULL, submitted_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
