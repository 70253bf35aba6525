package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	badgerepository "github.com/smallbiznis/touchbase/internal/badge/repository"
	badgeservice "github.com/smallbiznis/touchbase/internal/badge/service"
	"github.com/smallbiznis/touchbase/internal/clock"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/streak/domain"
	"github.com/smallbiznis/touchbase/internal/streak/repository"
	"github.com/smallbiznis/touchbase/internal/testutil"
	xprepository "github.com/smallbiznis/touchbase/internal/xp/repository"
	xpservice "github.com/smallbiznis/touchbase/internal/xp/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	badges badgedomain.Service
	clock  *clock.FakeClock
	db     *gorm.DB
	node   *snowflake.Node
}

func setup(t *testing.T, timezone string) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	rules := config.NewStaticRulesHolder(config.DefaultGamificationRules())
	xpRepo := xprepository.Provide(db)
	ledger := xpservice.NewLedger(xpRepo, node)
	badges := badgeservice.New(badgeservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node,
		Repo: badgerepository.Provide(db), Crediter: ledger, Rules: rules,
	})
	xpSvc := xpservice.New(xpservice.Params{
		DB: db, Log: zap.NewNop(), Repo: xpRepo, Ledger: ledger, Rules: rules, Evaluator: badges,
	})
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Cfg:       config.Config{Streak: config.StreakConfig{Timezone: timezone}},
		Clock:     fake,
		Repo:      repository.Provide(db),
		XPSvc:     xpSvc,
		Evaluator: badges,
	})
	return fixture{svc: svc, badges: badges, clock: fake, db: db, node: node}
}

func TestUpdateConsecutiveDays(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	first, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStarted, first.Outcome)
	assert.Equal(t, int64(1), first.Current)
	assert.False(t, first.Continued)

	f.clock.Advance(24 * time.Hour)
	second, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeContinued, second.Outcome)
	assert.True(t, second.Continued)
	assert.Equal(t, int64(2), second.Current)
	assert.Equal(t, int64(2), second.Longest)
	assert.Equal(t, int64(5), second.XPAwarded)

	var total int64
	require.NoError(t, f.db.Raw(`SELECT total FROM xp_totals WHERE org_id = ? AND user_id = ?`, orgID, userID).Scan(&total).Error)
	assert.Equal(t, int64(5), total)
}

func TestUpdateSameDayCountsOnce(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	_, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Hour)

	again, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyCounted, again.Outcome)
	assert.Equal(t, int64(1), again.Current)
	assert.Zero(t, again.XPAwarded)
}

func TestUpdateGapResets(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Update(ctx, orgID, userID)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}
	f.clock.Advance(48 * time.Hour)

	res, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeReset, res.Outcome)
	assert.Equal(t, int64(1), res.Current)
	assert.Equal(t, int64(3), res.Longest)
}

func TestUpdateAwardsStreakBadge(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()
	_, err := f.badges.SeedDefaults(ctx, orgID)
	require.NoError(t, err)

	var last *domain.UpdateResult
	for i := 0; i < 7; i++ {
		last, err = f.svc.Update(ctx, orgID, userID)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	assert.Equal(t, int64(7), last.Current)
	codes := make([]string, 0, len(last.Badges))
	for _, b := range last.Badges {
		codes = append(codes, b.Code)
	}
	assert.Contains(t, codes, "streak_7")
}

func TestUpdateUsesConfiguredTimezone(t *testing.T) {
	f := setup(t, "Asia/Jakarta")
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	// 17:30 UTC is already January 2nd in Jakarta (UTC+7).
	f.clock.Set(time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC))
	_, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	res, err := f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyCounted, res.Outcome)
}

func TestGetReportsActivity(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	empty, err := f.svc.Get(ctx, orgID, userID)
	require.NoError(t, err)
	assert.False(t, empty.Active)

	_, err = f.svc.Update(ctx, orgID, userID)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, orgID, userID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, int64(1), got.Current)
	assert.Equal(t, "2024-01-01", got.LastActivityDate)

	f.clock.Advance(72 * time.Hour)
	stale, err := f.svc.Get(ctx, orgID, userID)
	require.NoError(t, err)
	assert.False(t, stale.Active)
	assert.Zero(t, stale.Current)
	assert.Equal(t, int64(1), stale.Longest)
}
