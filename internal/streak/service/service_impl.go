package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/clock"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/observability/metrics"
	"github.com/smallbiznis/touchbase/internal/ratelimit"
	"github.com/smallbiznis/touchbase/internal/streak/domain"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	Clock     clock.Clock
	Repo      domain.Repository
	XPSvc     xpdomain.Service
	Evaluator badgedomain.Evaluator   `optional:"true"`
	Locker    *ratelimit.StreakLocker `optional:"true"`
	Metrics   *metrics.Metrics        `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	loc       *time.Location
	repo      domain.Repository
	xpSvc     xpdomain.Service
	evaluator badgedomain.Evaluator
	locker    *ratelimit.StreakLocker
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	log := p.Log.Named("streak.service")
	loc, err := time.LoadLocation(strings.TrimSpace(p.Cfg.Streak.Timezone))
	if err != nil || strings.TrimSpace(p.Cfg.Streak.Timezone) == "" {
		if err != nil {
			log.Warn("invalid streak timezone, using UTC", zap.String("timezone", p.Cfg.Streak.Timezone), zap.Error(err))
		}
		loc = time.UTC
	}
	return &Service{
		db:        p.DB,
		log:       log,
		clock:     p.Clock,
		loc:       loc,
		repo:      p.Repo,
		xpSvc:     p.XPSvc,
		evaluator: p.Evaluator,
		locker:    p.Locker,
		metrics:   p.Metrics,
	}
}

func (s *Service) Update(ctx context.Context, orgID, userID snowflake.ID) (*domain.UpdateResult, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	release, ok, err := s.locker.Acquire(ctx, orgID.String(), userID.String())
	if err != nil {
		// Redis trouble degrades to row locks only.
		s.log.Warn("streak lock unavailable", zap.String("user_id", userID.String()), zap.Error(err))
	} else if !ok {
		return nil, domain.ErrUpdateInProgress
	}
	if release != nil {
		defer release()
	}

	today := clock.Day(s.clock.Now(), s.loc)

	record, outcome, err := s.persist(ctx, orgID, userID, today)
	if err != nil && db.IsDuplicateKeyErr(err) {
		// A concurrent first update inserted the row; the retry sees and locks it.
		record, outcome, err = s.persist(ctx, orgID, userID, today)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStreakUpdate(ctx, string(outcome))
	result := &domain.UpdateResult{
		Current:   record.CurrentCount,
		Longest:   record.LongestCount,
		Outcome:   outcome,
		Continued: outcome == domain.OutcomeContinued,
		Badges:    []badgedomain.Awarded{},
	}

	if outcome == domain.OutcomeContinued {
		s.rewardContinuation(ctx, orgID, userID, record.CurrentCount, result)
	}
	return result, nil
}

func (s *Service) persist(ctx context.Context, orgID, userID snowflake.ID, today time.Time) (domain.Record, domain.Outcome, error) {
	var (
		next    domain.Record
		outcome domain.Outcome
	)
	err := rls.Transaction(ctx, s.db, int64(orgID), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		prev, err := repo.Find(ctx, orgID, userID, true)
		if err != nil {
			return err
		}

		next, outcome = domain.Advance(prev, today)
		if outcome == domain.OutcomeAlreadyCounted {
			return nil
		}

		next.OrgID = orgID
		next.UserID = userID
		next.UpdatedAt = s.clock.Now()
		if prev == nil {
			return repo.Insert(ctx, next)
		}
		return repo.Update(ctx, next)
	})
	return next, outcome, err
}

// rewardContinuation awards the streak_day XP and evaluates streak badges. Failures are logged only.
func (s *Service) rewardContinuation(ctx context.Context, orgID, userID snowflake.ID, current int64, result *domain.UpdateResult) {
	award, err := s.xpSvc.Award(ctx, xpdomain.AwardRequest{
		OrgID:  orgID,
		UserID: userID,
		Action: xpdomain.ActionStreakDay,
	})
	if err != nil {
		s.log.Warn("streak xp award failed",
			zap.String("org_id", orgID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	} else {
		result.XPAwarded = award.Delta
		result.Badges = append(result.Badges, award.Badges...)
	}

	if s.evaluator == nil {
		return
	}
	awarded, err := s.evaluator.Evaluate(ctx, orgID, userID, badgedomain.StreakTrigger(current))
	if err != nil {
		s.log.Warn("streak badge evaluation failed",
			zap.String("org_id", orgID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	result.Badges = append(result.Badges, awarded...)
}

func (s *Service) Get(ctx context.Context, orgID, userID snowflake.ID) (*domain.StreakResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	record, err := s.repo.Find(ctx, orgID, userID, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &domain.StreakResponse{}, nil
	}

	today := clock.Day(s.clock.Now(), s.loc)
	resp := &domain.StreakResponse{
		Longest:          record.LongestCount,
		LastActivityDate: record.LastActivityDate.Format(domain.DateLayout),
		Active:           record.IsActive(today),
	}
	if resp.Active {
		resp.Current = record.CurrentCount
	}
	return resp, nil
}
