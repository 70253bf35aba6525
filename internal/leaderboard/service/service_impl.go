package service

import (
	"context"
	"strconv"
	"time"

	"github.com/smallbiznis/touchbase/internal/cache"
	"github.com/smallbiznis/touchbase/internal/clock"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/leaderboard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Cfg   config.Config
	Clock clock.Clock
	Repo  domain.Repository
	Cache cache.LeaderboardCache `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	clock        clock.Clock
	loc          *time.Location
	repo         domain.Repository
	cache        cache.LeaderboardCache
	defaultLimit int
	maxLimit     int
}

func New(p Params) domain.Service {
	loc, err := time.LoadLocation(p.Cfg.Streak.Timezone)
	if err != nil || p.Cfg.Streak.Timezone == "" {
		loc = time.UTC
	}
	lc := p.Cache
	if lc == nil {
		lc = cache.NewLeaderboardCache(config.Config{}, nil, p.Log)
	}
	return &Service{
		log:          p.Log.Named("leaderboard.service"),
		clock:        p.Clock,
		loc:          loc,
		repo:         p.Repo,
		cache:        lc,
		defaultLimit: p.Cfg.Leaderboard.DefaultLimit,
		maxLimit:     p.Cfg.Leaderboard.MaxLimit,
	}
}

func (s *Service) Rank(ctx context.Context, q domain.Query) ([]domain.Entry, error) {
	return s.rank(ctx, q, false)
}

// Refresh recomputes the board from the store and overwrites the cached copy.
func (s *Service) Refresh(ctx context.Context, q domain.Query) ([]domain.Entry, error) {
	return s.rank(ctx, q, true)
}

func (s *Service) rank(ctx context.Context, q domain.Query, fresh bool) ([]domain.Entry, error) {
	if q.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	metric, ok := domain.NormalizeMetric(q.Metric)
	if !ok {
		return nil, domain.ErrInvalidMetric
	}
	limit := domain.ClampLimit(q.Limit, s.defaultLimit, s.maxLimit)

	if q.ClassID != 0 {
		found, err := s.repo.ClassInOrg(ctx, q.OrgID, q.ClassID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.ErrClassNotFound
		}
	}

	today := clock.Day(s.clock.Now(), s.loc)
	key := cache.Key(q.OrgID.String(), q.ClassID.String(), metric, strconv.Itoa(limit), today.Format("20060102"))
	var cached []domain.Entry
	if !fresh && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	var (
		rows []domain.Row
		err  error
	)
	switch metric {
	case domain.MetricStreak:
		rows, err = s.repo.TopStreaks(ctx, q.OrgID, q.ClassID, today.AddDate(0, 0, -1), limit)
	default:
		rows, err = s.repo.TopXP(ctx, q.OrgID, q.ClassID, limit)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, domain.Entry{
			Rank:        i + 1,
			UserID:      row.UserID.String(),
			DisplayName: row.DisplayName,
			Value:       row.Value,
			Longest:     row.Longest,
		})
	}

	s.cache.Set(ctx, key, entries)
	return entries, nil
}
