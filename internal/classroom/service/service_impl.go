package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/touchbase/internal/classroom/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCodeAttempts = 5

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	validate *validator.Validate
	newCode  func() string
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("classroom.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		validate: validator.New(),
		newCode:  newCode,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClassRequest) (*domain.ClassResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.TeacherID == 0 {
		return nil, domain.ErrInvalidTeacher
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	class := domain.Class{
		ID:        s.genID.Generate(),
		OrgID:     req.OrgID,
		TeacherID: req.TeacherID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.withFreshCode(func(code string) error {
		class.Code = code
		return rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Insert(ctx, class)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("class created",
		zap.String("org_id", req.OrgID.String()),
		zap.String("class_id", class.ID.String()),
	)
	return toResponse(domain.ClassSummary{Class: class}), nil
}

func (s *Service) Get(ctx context.Context, orgID, id snowflake.ID) (*domain.ClassResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return nil, domain.ErrInvalidClass
	}
	rows, err := s.repo.List(ctx, domain.ListFilter{OrgID: orgID, ClassID: id, IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return toResponse(rows[0]), nil
}

func (s *Service) List(ctx context.Context, req domain.ListClassesRequest) ([]domain.ClassResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	rows, err := s.repo.List(ctx, domain.ListFilter{
		OrgID:           req.OrgID,
		TeacherID:       req.TeacherID,
		StudentID:       req.StudentID,
		IncludeArchived: req.IncludeArchived,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.ClassResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toResponse(row))
	}
	return out, nil
}

// Join enrolls the student in the class holding code. Joining again is not an error.
func (s *Service) Join(ctx context.Context, req domain.JoinRequest) (*domain.JoinResult, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.StudentID == 0 {
		return nil, domain.ErrInvalidStudent
	}
	code := normalizeCode(req.Code)
	if len(code) != domain.CodeLength {
		return nil, domain.ErrInvalidCode
	}

	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if class == nil || class.OrgID != req.OrgID {
		return nil, domain.ErrNotFound
	}
	if class.Archived() {
		return nil, domain.ErrArchived
	}

	var joined bool
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		var err error
		joined, err = s.repo.WithTx(tx).Enroll(ctx, domain.Enrollment{
			ID:        s.genID.Generate(),
			OrgID:     req.OrgID,
			ClassID:   class.ID,
			StudentID: req.StudentID,
			JoinedAt:  time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if joined {
		s.log.Info("student joined class",
			zap.String("class_id", class.ID.String()),
			zap.String("student_id", req.StudentID.String()),
		)
	}

	resp, err := s.Get(ctx, req.OrgID, class.ID)
	if err != nil {
		return nil, err
	}
	return &domain.JoinResult{Class: *resp, Joined: joined}, nil
}

func (s *Service) Roster(ctx context.Context, orgID, classID snowflake.ID) ([]domain.RosterEntry, error) {
	class, err := s.find(ctx, orgID, classID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Roster(ctx, orgID, class.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RosterEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RosterEntry{
			StudentID:   row.StudentID.String(),
			DisplayName: row.DisplayName,
			Email:       row.Email,
			JoinedAt:    row.JoinedAt,
		})
	}
	return out, nil
}

func (s *Service) RegenerateCode(ctx context.Context, orgID, classID snowflake.ID) (*domain.ClassResponse, error) {
	class, err := s.find(ctx, orgID, classID)
	if err != nil {
		return nil, err
	}
	if class.Archived() {
		return nil, domain.ErrArchived
	}

	err = s.withFreshCode(func(code string) error {
		return rls.Transaction(ctx, s.db, int64(orgID), func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).UpdateCode(ctx, orgID, classID, code)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orgID, classID)
}

func (s *Service) Archive(ctx context.Context, orgID, classID snowflake.ID) error {
	if _, err := s.find(ctx, orgID, classID); err != nil {
		return err
	}
	archived, err := s.repo.Archive(ctx, orgID, classID)
	if err != nil {
		return err
	}
	if archived {
		s.log.Info("class archived", zap.String("class_id", classID.String()))
	}
	return nil
}

func (s *Service) IsEnrolled(ctx context.Context, orgID, classID, studentID snowflake.ID) (bool, error) {
	if orgID == 0 || classID == 0 || studentID == 0 {
		return false, nil
	}
	return s.repo.IsEnrolled(ctx, orgID, classID, studentID)
}

func (s *Service) find(ctx context.Context, orgID, classID snowflake.ID) (*domain.Class, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if classID == 0 {
		return nil, domain.ErrInvalidClass
	}
	class, err := s.repo.FindByID(ctx, orgID, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, domain.ErrNotFound
	}
	return class, nil
}

// withFreshCode retries fn with a new code while the unique index rejects it.
func (s *Service) withFreshCode(fn func(code string) error) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		err := fn(s.newCode())
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		s.log.Debug("class code collision", zap.Int("attempt", attempt))
	}
	return domain.ErrCodeExhausted
}

func toResponse(row domain.ClassSummary) *domain.ClassResponse {
	return &domain.ClassResponse{
		ID:           row.ID.String(),
		Name:         row.Name,
		Code:         row.Code,
		TeacherID:    row.TeacherID.String(),
		StudentCount: row.StudentCount,
		Archived:     row.Archived(),
		ArchivedAt:   row.ArchivedAt,
		CreatedAt:    row.CreatedAt,
	}
}
