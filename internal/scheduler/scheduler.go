package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/touchbase/internal/clock"
	leaderboarddomain "github.com/smallbiznis/touchbase/internal/leaderboard/domain"
	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"github.com/smallbiznis/touchbase/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/touchbase/internal/observability/metrics"
	"github.com/smallbiznis/touchbase/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	Config         Config                    `optional:"true"`
	LeaderboardSvc leaderboarddomain.Service `optional:"true"`
	Redis          *redis.Client             `optional:"true"`
	Metrics        *obsmetrics.Metrics       `optional:"true"`
}

type Scheduler struct {
	db             *gorm.DB
	log            *zap.Logger
	cfg            Config
	clock          clock.Clock
	loc            *time.Location
	leaderboardSvc leaderboarddomain.Service
	locker         *ratelimit.Locker
	metrics        *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		p.Log.Warn("invalid streak timezone, using UTC", zap.String("timezone", cfg.Timezone))
		loc = time.UTC
	}
	return &Scheduler{
		db:             p.DB,
		log:            p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:            cfg,
		clock:          p.Clock,
		loc:            loc,
		leaderboardSvc: p.LeaderboardSvc,
		locker:         ratelimit.NewLocker(p.Redis),
		metrics:        p.Metrics,
	}, nil
}

// runJob executes fn under a timeout. With Redis configured only one replica runs a job per tick.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	parent = obscontext.WithJob(parent, name)
	log := logger.WithContext(parent, s.log)

	if s.locker != nil {
		lease, err := s.locker.Acquire(parent, ratelimit.SchedulerLockKey(name), timeout+defaultLockTTLSlack)
		switch {
		case errors.Is(err, ratelimit.ErrLockHeld):
			log.Debug("job held by another instance")
			s.metrics.RecordJobRun(parent, name, "skipped", 0)
			return nil
		case err != nil:
			log.Warn("job lock unavailable, running unguarded", zap.Error(err))
		default:
			defer func() { _ = lease.Release(context.WithoutCancel(parent)) }()
		}
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	err := fn(ctx)
	took := s.clock.Now().Sub(start)

	switch {
	case err == nil:
		s.metrics.RecordJobRun(ctx, name, "ok", took)
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		// a timed out batch resumes on the next tick
		s.metrics.RecordJobRun(ctx, name, "timeout", took)
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	default:
		s.metrics.RecordJobRun(ctx, name, "error", took)
		return fmt.Errorf("%s: %w", name, err)
	}
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobStreakExpiry, s.ExpireStreaksJob},
		{JobLeaderboardWarm, s.WarmLeaderboardsJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, defaultJobTimeout, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// no explicit list enables every job
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

type streakKey struct {
	OrgID  snowflake.ID
	UserID snowflake.ID
}

// ExpireStreaksJob zeroes current counts whose last activity is older than yesterday.
// Longest counts are kept.
func (s *Scheduler) ExpireStreaksJob(ctx context.Context) error {
	now := s.clock.Now()
	cutoff := clock.Day(now, s.loc).AddDate(0, 0, -1)

	expired := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var keys []streakKey
		if err := s.db.WithContext(ctx).
			Table("streaks").
			Select("org_id, user_id").
			Where("current_count > 0 AND last_activity_date < ?", cutoff).
			Order("org_id, user_id").
			Limit(s.cfg.BatchSize).
			Scan(&keys).Error; err != nil {
			return err
		}
		if len(keys) == 0 {
			break
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, key := range keys {
				res := tx.Exec(
					`UPDATE streaks SET current_count = 0, updated_at = ?
					 WHERE org_id = ? AND user_id = ? AND current_count > 0 AND last_activity_date < ?`,
					now, key.OrgID, key.UserID, cutoff,
				)
				if res.Error != nil {
					return res.Error
				}
				expired += int(res.RowsAffected)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if len(keys) < s.cfg.BatchSize {
			break
		}
	}

	if expired > 0 {
		logger.WithContext(ctx, s.log).Info("expired streaks", zap.Int("count", expired), zap.Time("cutoff", cutoff))
	}
	return nil
}

// WarmLeaderboardsJob recomputes the cached boards of organizations that earned XP since the last tick.
func (s *Scheduler) WarmLeaderboardsJob(ctx context.Context) error {
	if !s.cfg.WarmLeaderboards || s.leaderboardSvc == nil {
		return nil
	}

	since := s.clock.Now().Add(-s.cfg.RunInterval)
	var orgIDs []snowflake.ID
	if err := s.db.WithContext(ctx).
		Table("xp_events").
		Distinct("org_id").
		Where("created_at >= ?", since).
		Limit(s.cfg.BatchSize).
		Pluck("org_id", &orgIDs).Error; err != nil {
		return err
	}

	var err error
	for _, orgID := range orgIDs {
		orgCtx := obscontext.WithOrgID(ctx, orgID.String())
		for _, metric := range []string{leaderboarddomain.MetricXP, leaderboarddomain.MetricStreak} {
			if _, rankErr := s.leaderboardSvc.Refresh(orgCtx, leaderboarddomain.Query{OrgID: orgID, Metric: metric}); rankErr != nil {
				err = errors.Join(err, fmt.Errorf("org %s %s: %w", orgID, metric, rankErr))
			}
		}
	}
	return err
}
