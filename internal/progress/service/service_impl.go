package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/clock"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	"github.com/smallbiznis/touchbase/internal/observability/metrics"
	"github.com/smallbiznis/touchbase/internal/progress/domain"
	streakdomain "github.com/smallbiznis/touchbase/internal/streak/domain"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Modules   moduledomain.Service
	XPSvc     xpdomain.Service
	Streaks   streakdomain.Service  `optional:"true"`
	Evaluator badgedomain.Evaluator `optional:"true"`
	Metrics   *metrics.Metrics      `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	modules   moduledomain.Service
	xpSvc     xpdomain.Service
	streaks   streakdomain.Service
	evaluator badgedomain.Evaluator
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("progress.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		modules:   p.Modules,
		xpSvc:     p.XPSvc,
		streaks:   p.Streaks,
		evaluator: p.Evaluator,
		metrics:   p.Metrics,
	}
}

// Start opens progress on a published module. Starting twice returns the
// existing row with Created=false.
func (s *Service) Start(ctx context.Context, req domain.StartRequest) (*domain.StartResult, error) {
	if err := validateKeys(req.OrgID, req.UserID, req.ModuleID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Find(ctx, req.OrgID, req.UserID, req.ModuleID, false)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &domain.StartResult{Progress: toResponse(existing), Created: false}, nil
	}

	module, err := s.modules.Get(ctx, req.OrgID, req.ModuleID)
	if err != nil {
		return nil, err
	}
	if !module.Published {
		return nil, domain.ErrModuleNotPublished
	}
	if module.TotalSteps == 0 {
		return nil, moduledomain.ErrNoSteps
	}

	now := s.clock.Now()
	progress := domain.Progress{
		ID:         s.genID.Generate(),
		OrgID:      req.OrgID,
		UserID:     req.UserID,
		ModuleID:   req.ModuleID,
		TotalSteps: module.TotalSteps,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	var created bool
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		var err error
		created, err = s.repo.WithTx(tx).InsertIfAbsent(ctx, progress)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a concurrent start; report the winner's row.
		winner, err := s.repo.Find(ctx, req.OrgID, req.UserID, req.ModuleID, false)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, domain.ErrProgressNotFound
		}
		return &domain.StartResult{Progress: toResponse(winner), Created: false}, nil
	}

	s.metrics.RecordProgressUpdate(ctx, "started")
	s.log.Info("module started",
		zap.String("org_id", req.OrgID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("module_id", req.ModuleID.String()),
		zap.Int("total_steps", module.TotalSteps),
	)
	return &domain.StartResult{Progress: toResponse(&progress), Created: true}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.UpdateResult, error) {
	if err := validateKeys(req.OrgID, req.UserID, req.ModuleID); err != nil {
		return nil, err
	}
	if req.StepIndex < 0 {
		return nil, domain.ErrInvalidStepIndex
	}
	data, err := stepData(req.StepData)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var (
		before  domain.Progress
		after   domain.Progress
		outcome domain.Outcome
	)
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Find(ctx, req.OrgID, req.UserID, req.ModuleID, true)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrProgressNotFound
		}
		if current.Completed {
			return domain.ErrProgressCompleted
		}
		if req.StepIndex > current.TotalSteps {
			return domain.ErrInvalidStepIndex
		}

		if data != nil {
			err := repo.UpsertSubmission(ctx, domain.StepSubmission{
				ID:          s.genID.Generate(),
				OrgID:       req.OrgID,
				ProgressID:  current.ID,
				StepIndex:   req.StepIndex,
				Data:        data,
				SubmittedAt: now,
			})
			if err != nil {
				return err
			}
		}

		before = *current
		after, outcome = current.Advance(req.StepIndex, now)
		if outcome == domain.OutcomeUnchanged {
			return nil
		}
		return repo.Save(ctx, after)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordProgressUpdate(ctx, string(outcome))
	result := &domain.UpdateResult{
		Progress: toResponse(&after),
		Outcome:  outcome,
		Badges:   []badgedomain.Awarded{},
	}

	if outcome != domain.OutcomeUnchanged {
		s.award(ctx, req.OrgID, req.UserID, xpdomain.ActionCompleteStep, result)
		if before.CurrentStep == 0 {
			s.milestone(ctx, req.OrgID, req.UserID, badgedomain.MilestoneFirstStep, result)
		}
	}
	if outcome == domain.OutcomeCompleted {
		s.award(ctx, req.OrgID, req.UserID, xpdomain.ActionFinishModule, result)
		s.milestone(ctx, req.OrgID, req.UserID, badgedomain.MilestoneModuleCompleted, result)
		s.log.Info("module completed",
			zap.String("org_id", req.OrgID.String()),
			zap.String("user_id", req.UserID.String()),
			zap.String("module_id", req.ModuleID.String()),
		)
	}
	s.recordActivity(ctx, req.OrgID, req.UserID, result)
	return result, nil
}

func (s *Service) Get(ctx context.Context, orgID, userID, moduleID snowflake.ID) (*domain.ProgressResponse, error) {
	if err := validateKeys(orgID, userID, moduleID); err != nil {
		return nil, err
	}
	progress, err := s.repo.Find(ctx, orgID, userID, moduleID, false)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, domain.ErrProgressNotFound
	}
	submissions, err := s.repo.ListSubmissions(ctx, progress.ID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(progress)
	resp.Steps = make([]domain.StepDataResponse, 0, len(submissions))
	for _, sub := range submissions {
		resp.Steps = append(resp.Steps, domain.StepDataResponse{
			StepIndex:   sub.StepIndex,
			Data:        json.RawMessage(sub.Data),
			SubmittedAt: sub.SubmittedAt,
		})
	}
	return &resp, nil
}

func (s *Service) ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]domain.ProgressResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	rows, err := s.repo.ListForUser(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) award(ctx context.Context, orgID, userID snowflake.ID, action string, result *domain.UpdateResult) {
	awarded, err := s.xpSvc.Award(ctx, xpdomain.AwardRequest{OrgID: orgID, UserID: userID, Action: action})
	if err != nil {
		s.log.Warn("progress xp award failed",
			zap.String("user_id", userID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}
	result.XPAwarded += awarded.Delta
	result.Badges = append(result.Badges, awarded.Badges...)
}

func (s *Service) milestone(ctx context.Context, orgID, userID snowflake.ID, key string, result *domain.UpdateResult) {
	if s.evaluator == nil {
		return
	}
	awarded, err := s.evaluator.Evaluate(ctx, orgID, userID, badgedomain.MilestoneTrigger(key))
	if err != nil {
		s.log.Warn("milestone evaluation failed",
			zap.String("user_id", userID.String()),
			zap.String("milestone", key),
			zap.Error(err),
		)
		return
	}
	result.Badges = append(result.Badges, awarded...)
}

func (s *Service) recordActivity(ctx context.Context, orgID, userID snowflake.ID, result *domain.UpdateResult) {
	if s.streaks == nil {
		return
	}
	streak, err := s.streaks.Update(ctx, orgID, userID)
	if err != nil {
		level := s.log.Warn
		if errors.Is(err, streakdomain.ErrUpdateInProgress) {
			level = s.log.Debug
		}
		level("streak update after progress failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	result.XPAwarded += streak.XPAwarded
	result.Badges = append(result.Badges, streak.Badges...)
}

func validateKeys(orgID, userID, moduleID snowflake.ID) error {
	switch {
	case orgID == 0:
		return domain.ErrInvalidOrganization
	case userID == 0:
		return domain.ErrInvalidUser
	case moduleID == 0:
		return domain.ErrInvalidModule
	}
	return nil
}

// stepData returns nil when there is nothing to store. The payload is checked
// for well-formedness only.
func stepData(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, domain.ErrInvalidStepData
	}
	return datatypes.JSON(trimmed), nil
}

func toResponse(p *domain.Progress) domain.ProgressResponse {
	return domain.ProgressResponse{
		ID:          p.ID.String(),
		ModuleID:    p.ModuleID.String(),
		CurrentStep: p.CurrentStep,
		TotalSteps:  p.TotalSteps,
		Percent:     p.Percent(),
		Completed:   p.Completed,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
