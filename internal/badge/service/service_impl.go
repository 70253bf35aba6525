package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/observability/metrics"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Crediter xpdomain.Crediter
	Rules    *config.GamificationRulesHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	crediter xpdomain.Crediter
	rules    *config.GamificationRulesHolder
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("badge.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		crediter: p.Crediter,
		rules:    p.Rules,
		metrics:  p.Metrics,
		validate: validator.New(),
	}
}

// ProvideEvaluator narrows the service for callers that only award badges.
func ProvideEvaluator(s domain.Service) domain.Evaluator {
	return s
}

func (s *Service) Evaluate(ctx context.Context, orgID, userID snowflake.ID, trigger domain.Trigger) ([]domain.Awarded, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	catalog, err := s.repo.ListActive(ctx, orgID)
	if err != nil {
		return nil, err
	}

	awarded := []domain.Awarded{}
	for _, badge := range catalog {
		if !badge.Qualifies(trigger) {
			continue
		}

		var granted bool
		err := rls.Transaction(ctx, s.db, int64(orgID), func(tx *gorm.DB) error {
			var err error
			granted, err = s.repo.WithTx(tx).Grant(ctx, domain.UserBadge{
				ID:        s.genID.Generate(),
				OrgID:     orgID,
				UserID:    userID,
				BadgeID:   badge.ID,
				AwardedAt: time.Now().UTC(),
			})
			if err != nil || !granted || badge.XPReward <= 0 {
				return err
			}
			meta, _ := json.Marshal(map[string]string{"badge": badge.Code})
			return s.crediter.Credit(ctx, tx, xpdomain.CreditRequest{
				OrgID:    orgID,
				UserID:   userID,
				Source:   xpdomain.BadgeRewardPrefix + badge.Code,
				Points:   badge.XPReward,
				Metadata: meta,
			})
		})
		if err != nil {
			return awarded, err
		}
		if !granted {
			continue
		}

		s.metrics.RecordBadgeAwarded(ctx, badge.Code)
		s.log.Info("badge awarded",
			zap.String("org_id", orgID.String()),
			zap.String("user_id", userID.String()),
			zap.String("badge", badge.Code),
		)
		awarded = append(awarded, domain.Awarded{
			Code:     badge.Code,
			Name:     badge.Name,
			XPReward: badge.XPReward,
		})
	}

	return awarded, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateBadgeRequest) (*domain.BadgeResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	req.Code = strings.ToLower(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	req.Criteria = strings.ToLower(strings.TrimSpace(req.Criteria))
	req.MilestoneKey = strings.TrimSpace(req.MilestoneKey)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	badge := domain.Badge{
		ID:           s.genID.Generate(),
		OrgID:        req.OrgID,
		Code:         req.Code,
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.TrimSpace(req.Category),
		Icon:         strings.TrimSpace(req.Icon),
		XPReward:     req.XPReward,
		Criteria:     req.Criteria,
		Threshold:    req.Threshold,
		MilestoneKey: req.MilestoneKey,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := checkCriteria(badge); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, badge); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, err
	}
	return toResponse(badge), nil
}

func (s *Service) List(ctx context.Context, orgID snowflake.ID) ([]domain.BadgeResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	badges, err := s.repo.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.BadgeResponse, 0, len(badges))
	for _, b := range badges {
		resp = append(resp, *toResponse(b))
	}
	return resp, nil
}

func (s *Service) ListForUser(ctx context.Context, orgID, userID snowflake.ID) ([]domain.UserBadgeResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	items, err := s.repo.ListForUser(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.UserBadgeResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.UserBadgeResponse{
			BadgeID:     item.BadgeID.String(),
			Code:        item.Code,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Icon:        item.Icon,
			XPReward:    item.XPReward,
			AwardedAt:   item.AwardedAt,
		})
	}
	return resp, nil
}

// SeedDefaults inserts the configured catalog, skipping codes the org already has.
func (s *Service) SeedDefaults(ctx context.Context, orgID snowflake.ID) (int, error) {
	if orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}

	definitions := s.rules.Get().Badges
	inserted := 0
	err := rls.Transaction(ctx, s.db, int64(orgID), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()
		for _, def := range definitions {
			ok, err := repo.InsertIfAbsent(ctx, domain.Badge{
				ID:           s.genID.Generate(),
				OrgID:        orgID,
				Code:         strings.ToLower(strings.TrimSpace(def.Code)),
				Name:         def.Name,
				Description:  def.Description,
				Category:     def.Category,
				Icon:         def.Icon,
				XPReward:     def.XPReward,
				Criteria:     def.Criteria,
				Threshold:    def.Threshold,
				MilestoneKey: def.MilestoneKey,
				Active:       true,
				CreatedAt:    now,
			})
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func checkCriteria(b domain.Badge) error {
	switch b.Criteria {
	case domain.CriteriaXPTotal, domain.CriteriaStreak:
		if b.Threshold <= 0 {
			return domain.ErrInvalidThreshold
		}
	case domain.CriteriaMilestone:
		if b.MilestoneKey == "" {
			return domain.ErrInvalidCriteria
		}
	default:
		return domain.ErrInvalidCriteria
	}
	return nil
}

func toResponse(b domain.Badge) *domain.BadgeResponse {
	return &domain.BadgeResponse{
		ID:           b.ID.String(),
		Code:         b.Code,
		Name:         b.Name,
		Description:  b.Description,
		Category:     b.Category,
		Icon:         b.Icon,
		XPReward:     b.XPReward,
		Criteria:     b.Criteria,
		Threshold:    b.Threshold,
		MilestoneKey: b.MilestoneKey,
		Active:       b.Active,
		CreatedAt:    b.CreatedAt,
	}
}
