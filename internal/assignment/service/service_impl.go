package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/touchbase/internal/assignment/domain"
	classroomdomain "github.com/smallbiznis/touchbase/internal/classroom/domain"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Classes classroomdomain.Service
	Modules moduledomain.Service
	XPSvc   xpdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	classes  classroomdomain.Service
	modules  moduledomain.Service
	xpSvc    xpdomain.Service
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("assignment.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		classes:  p.Classes,
		modules:  p.Modules,
		xpSvc:    p.XPSvc,
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAssignmentRequest) (*domain.AssignmentResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	classID, err := snowflake.ParseString(strings.TrimSpace(req.ClassID))
	if err != nil || classID == 0 {
		return nil, domain.ErrInvalidClass
	}
	if _, err := s.classes.Get(ctx, req.OrgID, classID); err != nil {
		return nil, err
	}

	var moduleID *snowflake.ID
	if raw := strings.TrimSpace(req.ModuleID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidModule
		}
		if _, err := s.modules.Get(ctx, req.OrgID, parsed); err != nil {
			return nil, err
		}
		moduleID = &parsed
	}

	maxPoints := req.MaxPoints
	if maxPoints == 0 {
		maxPoints = domain.DefaultMaxPoints
	}
	now := time.Now().UTC()
	assignment := domain.Assignment{
		ID:           s.genID.Generate(),
		OrgID:        req.OrgID,
		ClassID:      classID,
		ModuleID:     moduleID,
		Title:        req.Title,
		Instructions: strings.TrimSpace(req.Instructions),
		DueAt:        req.DueAt,
		MaxPoints:    maxPoints,
		Status:       domain.StatusDraft,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Insert(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(&assignment), nil
}

func (s *Service) Get(ctx context.Context, orgID, id snowflake.ID) (*domain.AssignmentResponse, error) {
	assignment, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(assignment), nil
}

func (s *Service) List(ctx context.Context, req domain.ListAssignmentsRequest) ([]domain.AssignmentResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	items, err := s.repo.List(ctx, domain.ListFilter{
		OrgID:         req.OrgID,
		ClassID:       req.ClassID,
		PublishedOnly: req.PublishedOnly,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.AssignmentResponse, 0, len(items))
	for i := range items {
		out = append(out, *toAssignmentResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) Publish(ctx context.Context, orgID, id snowflake.ID) (*domain.AssignmentResponse, error) {
	if _, err := s.find(ctx, orgID, id); err != nil {
		return nil, err
	}
	if _, err := s.repo.Publish(ctx, orgID, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, orgID, id)
}

func (s *Service) SaveDraft(ctx context.Context, req domain.SubmitRequest) (*domain.SubmissionResponse, error) {
	submission, _, err := s.transition(ctx, req, domain.SubmissionDraft)
	if err != nil {
		return nil, err
	}
	return toSubmissionResponse(submission), nil
}

// Submit hands the work in. Only the first hand-in earns submit_assignment XP.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	submission, first, err := s.transition(ctx, req, domain.SubmissionSubmitted)
	if err != nil {
		return nil, err
	}

	result := &domain.SubmitResult{Submission: *toSubmissionResponse(submission)}
	if first {
		result.XPAwarded = s.award(ctx, submission, xpdomain.ActionSubmitAssignment)
	}
	return result, nil
}

func (s *Service) Grade(ctx context.Context, req domain.GradeRequest) (*domain.GradeResult, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.SubmissionID == 0 {
		return nil, domain.ErrSubmissionNotFound
	}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	var (
		graded     domain.Submission
		perfect    bool
		wasPerfect bool
	)
	err := rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		submission, err := repo.FindSubmissionByID(ctx, req.OrgID, req.SubmissionID, true)
		if err != nil {
			return err
		}
		if submission == nil {
			return domain.ErrSubmissionNotFound
		}
		if !domain.CanTransition(submission.Status, domain.SubmissionGraded) {
			return domain.ErrInvalidTransition
		}
		assignment, err := repo.FindByID(ctx, req.OrgID, submission.AssignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return domain.ErrNotFound
		}
		if *req.Score > assignment.MaxPoints {
			return domain.ErrInvalidScore
		}

		wasPerfect = submission.Score != nil && *submission.Score == assignment.MaxPoints
		perfect = *req.Score == assignment.MaxPoints

		now := time.Now().UTC()
		score := *req.Score
		submission.Status = domain.SubmissionGraded
		submission.Score = &score
		submission.Feedback = strings.TrimSpace(req.Feedback)
		submission.GradedAt = &now
		submission.UpdatedAt = now
		if err := repo.UpdateSubmission(ctx, *submission); err != nil {
			return err
		}
		graded = *submission
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &domain.GradeResult{Submission: *toSubmissionResponse(&graded), Perfect: perfect}
	if perfect && !wasPerfect {
		result.XPAwarded = s.award(ctx, &graded, xpdomain.ActionPerfectScore)
	}
	return result, nil
}

func (s *Service) Return(ctx context.Context, orgID, submissionID snowflake.ID) (*domain.SubmissionResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	var returned domain.Submission
	err := rls.Transaction(ctx, s.db, int64(orgID), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		submission, err := repo.FindSubmissionByID(ctx, orgID, submissionID, true)
		if err != nil {
			return err
		}
		if submission == nil {
			return domain.ErrSubmissionNotFound
		}
		if !domain.CanTransition(submission.Status, domain.SubmissionReturned) {
			return domain.ErrInvalidTransition
		}
		now := time.Now().UTC()
		submission.Status = domain.SubmissionReturned
		submission.ReturnedAt = &now
		submission.UpdatedAt = now
		if err := repo.UpdateSubmission(ctx, *submission); err != nil {
			return err
		}
		returned = *submission
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSubmissionResponse(&returned), nil
}

func (s *Service) GetSubmission(ctx context.Context, orgID, assignmentID, studentID snowflake.ID) (*domain.SubmissionResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	submission, err := s.repo.FindSubmission(ctx, orgID, assignmentID, studentID, false)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, domain.ErrSubmissionNotFound
	}
	return toSubmissionResponse(submission), nil
}

func (s *Service) ListSubmissions(ctx context.Context, orgID, assignmentID snowflake.ID) ([]domain.SubmissionResponse, error) {
	if _, err := s.find(ctx, orgID, assignmentID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSubmissions(ctx, orgID, assignmentID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SubmissionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *toSubmissionResponse(&rows[i]))
	}
	return out, nil
}

// transition writes the student's content and moves the submission to status.
// first reports whether this is the submission's first hand-in.
func (s *Service) transition(ctx context.Context, req domain.SubmitRequest, status string) (*domain.Submission, bool, error) {
	if req.OrgID == 0 {
		return nil, false, domain.ErrInvalidOrganization
	}
	if req.StudentID == 0 {
		return nil, false, domain.ErrInvalidStudent
	}
	content, err := submissionContent(req.Content)
	if err != nil {
		return nil, false, err
	}

	assignment, err := s.find(ctx, req.OrgID, req.AssignmentID)
	if err != nil {
		return nil, false, err
	}
	if !assignment.Published() {
		return nil, false, domain.ErrNotPublished
	}
	enrolled, err := s.classes.IsEnrolled(ctx, req.OrgID, assignment.ClassID, req.StudentID)
	if err != nil {
		return nil, false, err
	}
	if !enrolled {
		return nil, false, domain.ErrNotEnrolled
	}

	var (
		saved domain.Submission
		first bool
	)
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindSubmission(ctx, req.OrgID, assignment.ID, req.StudentID, true)
		if err != nil {
			return err
		}
		from := ""
		if existing != nil {
			from = existing.Status
		}
		if !domain.CanTransition(from, status) {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		if existing == nil {
			saved = domain.Submission{
				ID:           s.genID.Generate(),
				OrgID:        req.OrgID,
				AssignmentID: assignment.ID,
				StudentID:    req.StudentID,
				CreatedAt:    now,
			}
		} else {
			saved = *existing
		}
		if content != nil {
			saved.Content = content
		}
		saved.Status = status
		saved.UpdatedAt = now
		if status == domain.SubmissionSubmitted {
			first = saved.SubmittedAt == nil
			saved.SubmittedAt = &now
		}

		if existing == nil {
			return repo.InsertSubmission(ctx, saved)
		}
		return repo.UpdateSubmission(ctx, saved)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			// A concurrent first write created the row.
			return nil, false, domain.ErrInvalidTransition
		}
		return nil, false, err
	}
	return &saved, first, nil
}

func (s *Service) award(ctx context.Context, submission *domain.Submission, action string) int64 {
	metadata, _ := json.Marshal(map[string]string{
		"assignment_id": submission.AssignmentID.String(),
		"submission_id": submission.ID.String(),
	})
	awarded, err := s.xpSvc.Award(ctx, xpdomain.AwardRequest{
		OrgID:    submission.OrgID,
		UserID:   submission.StudentID,
		Action:   action,
		Metadata: metadata,
	})
	if err != nil {
		s.log.Warn("assignment xp award failed",
			zap.String("submission_id", submission.ID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return 0
	}
	return awarded.Delta
}

func (s *Service) find(ctx context.Context, orgID, id snowflake.ID) (*domain.Assignment, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return nil, domain.ErrInvalidAssignment
	}
	assignment, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, domain.ErrNotFound
	}
	return assignment, nil
}

func submissionContent(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, domain.ErrInvalidContent
	}
	return datatypes.JSON(trimmed), nil
}

func toAssignmentResponse(a *domain.Assignment) *domain.AssignmentResponse {
	resp := &domain.AssignmentResponse{
		ID:           a.ID.String(),
		ClassID:      a.ClassID.String(),
		Title:        a.Title,
		Instructions: a.Instructions,
		DueAt:        a.DueAt,
		MaxPoints:    a.MaxPoints,
		Status:       a.Status,
		CreatedBy:    a.CreatedBy.String(),
		CreatedAt:    a.CreatedAt,
	}
	if a.ModuleID != nil {
		resp.ModuleID = a.ModuleID.String()
	}
	return resp
}

func toSubmissionResponse(sub *domain.Submission) *domain.SubmissionResponse {
	resp := &domain.SubmissionResponse{
		ID:           sub.ID.String(),
		AssignmentID: sub.AssignmentID.String(),
		StudentID:    sub.StudentID.String(),
		Status:       sub.Status,
		Score:        sub.Score,
		Feedback:     sub.Feedback,
		SubmittedAt:  sub.SubmittedAt,
		GradedAt:     sub.GradedAt,
		ReturnedAt:   sub.ReturnedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
	if len(sub.Content) > 0 {
		resp.Content = json.RawMessage(sub.Content)
	}
	return resp
}
