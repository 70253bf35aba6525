package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/observability/metrics"
	"github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxSkillCategoryLength = 64

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Ledger    *Ledger
	Rules     *config.GamificationRulesHolder
	Evaluator badgedomain.Evaluator `optional:"true"`
	Metrics   *metrics.Metrics      `optional:"true"`
}

type Service struct {
	*Ledger

	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	rules     *config.GamificationRulesHolder
	evaluator badgedomain.Evaluator
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		Ledger:    p.Ledger,
		db:        p.DB,
		log:       p.Log.Named("xp.service"),
		repo:      p.Repo,
		rules:     p.Rules,
		evaluator: p.Evaluator,
		metrics:   p.Metrics,
	}
}

func (s *Service) Award(ctx context.Context, req domain.AwardRequest) (*domain.AwardResult, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	points, ok := s.rules.ActionPoints(action)
	if !ok || points <= 0 {
		return nil, domain.ErrInvalidAction
	}

	category := strings.ToLower(strings.TrimSpace(req.SkillCategory))
	if len(category) > maxSkillCategoryLength {
		return nil, domain.ErrInvalidCategory
	}
	metadata, err := opaqueJSON(req.Metadata)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var total int64
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		var err error
		total, err = s.apply(ctx, tx, req.OrgID, req.UserID, action, category, points, metadata, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordXPAward(ctx, action, points)
	s.log.Debug("xp awarded",
		zap.String("org_id", req.OrgID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("action", action),
		zap.Int64("points", points),
		zap.Int64("total", total),
	)

	result := &domain.AwardResult{
		Action: action,
		Delta:  points,
		Total:  total,
		Badges: []badgedomain.Awarded{},
	}

	if s.evaluator != nil {
		awarded, err := s.evaluator.Evaluate(ctx, req.OrgID, req.UserID, badgedomain.XPTrigger(total))
		if err != nil {
			s.log.Warn("badge evaluation after xp award failed",
				zap.String("org_id", req.OrgID.String()),
				zap.String("user_id", req.UserID.String()),
				zap.Error(err),
			)
		} else if len(awarded) > 0 {
			result.Badges = awarded
			result.Total = s.totalAfterRewards(ctx, req.OrgID, req.UserID, total, awarded)
		}
	}

	return result, nil
}

// totalAfterRewards re-reads the stored total when a granted badge credited XP.
func (s *Service) totalAfterRewards(ctx context.Context, orgID, userID snowflake.ID, total int64, awarded []badgedomain.Awarded) int64 {
	rewarded := false
	for _, badge := range awarded {
		if badge.XPReward > 0 {
			rewarded = true
			break
		}
	}
	if !rewarded {
		return total
	}
	stored, err := s.repo.GetTotal(ctx, orgID, userID)
	if err != nil {
		s.log.Warn("reading xp total after badge reward failed",
			zap.String("org_id", orgID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return total
	}
	return stored
}

func (s *Service) GetTotal(ctx context.Context, orgID, userID snowflake.ID) (int64, error) {
	if orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return 0, domain.ErrInvalidUser
	}
	return s.repo.GetTotal(ctx, orgID, userID)
}

func (s *Service) Summary(ctx context.Context, orgID, userID snowflake.ID) (*domain.SummaryResponse, error) {
	total, err := s.GetTotal(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CategoryTotals(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	level, next := domain.LevelFor(s.rules.Get().Levels, total)
	resp := &domain.SummaryResponse{
		Total:      total,
		Level:      level,
		NextLevel:  next,
		Categories: make(map[string]int64, len(categories)),
	}
	if next != nil {
		resp.ToNext = next.MinXP - total
	}
	for _, c := range categories {
		resp.Categories[c.SkillCategory] = c.Points
	}
	return resp, nil
}

func (s *Service) ListEvents(ctx context.Context, req domain.ListEventsRequest) (*domain.ListEventsResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}

	after, err := req.After()
	if err != nil {
		return nil, err
	}
	var beforeID snowflake.ID
	if after != "" {
		parsed, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		beforeID = snowflake.ID(parsed)
	}

	limit := req.Limit()
	events, err := s.repo.ListEvents(ctx, req.OrgID, req.UserID, beforeID, limit+1)
	if err != nil {
		return nil, err
	}
	events, pageInfo := pagination.BuildCursorPageInfo(events, limit, func(e domain.Event) string {
		return e.ID.String()
	})

	resp := &domain.ListEventsResponse{
		Events:   make([]domain.EventResponse, 0, len(events)),
		PageInfo: pageInfo,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, domain.EventResponse{
			ID:            e.ID.String(),
			Action:        e.Action,
			Points:        e.Points,
			SkillCategory: e.SkillCategory,
			Metadata:      []byte(e.Metadata),
			CreatedAt:     e.CreatedAt,
		})
	}
	return resp, nil
}
