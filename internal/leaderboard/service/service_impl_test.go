package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/cache"
	"github.com/smallbiznis/touchbase/internal/clock"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/leaderboard/domain"
	"github.com/smallbiznis/touchbase/internal/leaderboard/repository"
	"github.com/smallbiznis/touchbase/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, cfg config.Config) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	if cfg.Leaderboard.DefaultLimit == 0 {
		cfg.Leaderboard.DefaultLimit = 10
		cfg.Leaderboard.MaxLimit = 100
	}
	svc := New(Params{
		Log:   zap.NewNop(),
		Cfg:   cfg,
		Clock: clock.NewFakeClock(now),
		Repo:  repository.Provide(db),
		Cache: cache.NewLeaderboardCache(cfg, nil, zap.NewNop()),
	})
	return svc, db, node
}

func seedXP(t *testing.T, db *gorm.DB, orgID, userID snowflake.ID, total int64) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO xp_totals (org_id, user_id, total, updated_at) VALUES (?, ?, ?, ?)`,
		orgID, userID, total, now,
	).Error)
}

func seedStreak(t *testing.T, db *gorm.DB, orgID, userID snowflake.ID, current int64, last time.Time) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO streaks (org_id, user_id, current_count, longest_count, last_activity_date, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		orgID, userID, current, current, last, now,
	).Error)
}

func TestRankXPOrdersWithTieBreak(t *testing.T) {
	svc, db, node := setup(t, config.Config{})
	orgID := node.Generate()
	a, b, c := node.Generate(), node.Generate(), node.Generate()
	seedXP(t, db, orgID, c, 50)
	seedXP(t, db, orgID, b, 120)
	seedXP(t, db, orgID, a, 50)
	seedXP(t, db, node.Generate(), a, 999)

	entries, err := svc.Rank(context.Background(), domain.Query{OrgID: orgID})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, b.String(), entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, a.String(), entries[1].UserID)
	assert.Equal(t, c.String(), entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestRankLimitBounds(t *testing.T) {
	svc, db, node := setup(t, config.Config{Leaderboard: config.LeaderboardConfig{DefaultLimit: 2, MaxLimit: 3}})
	orgID := node.Generate()
	for i := 0; i < 5; i++ {
		seedXP(t, db, orgID, node.Generate(), int64(10*i))
	}
	ctx := context.Background()

	entries, err := svc.Rank(ctx, domain.Query{OrgID: orgID, Limit: 0})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = svc.Rank(ctx, domain.Query{OrgID: orgID, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = svc.Rank(ctx, domain.Query{OrgID: orgID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(40), entries[0].Value)
}

func TestRankStreakCountsActiveOnly(t *testing.T) {
	svc, db, node := setup(t, config.Config{})
	orgID := node.Generate()
	today := clock.Day(now, time.UTC)
	active, yesterday, lapsed := node.Generate(), node.Generate(), node.Generate()
	seedStreak(t, db, orgID, active, 3, today)
	seedStreak(t, db, orgID, yesterday, 5, today.AddDate(0, 0, -1))
	seedStreak(t, db, orgID, lapsed, 40, today.AddDate(0, 0, -2))

	entries, err := svc.Rank(context.Background(), domain.Query{OrgID: orgID, Metric: "streak"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, yesterday.String(), entries[0].UserID)
	assert.Equal(t, active.String(), entries[1].UserID)
}

func TestRankClassScope(t *testing.T) {
	svc, db, node := setup(t, config.Config{})
	orgID := node.Generate()
	classID := node.Generate()
	enrolled, outsider := node.Generate(), node.Generate()
	require.NoError(t, db.Exec(
		`INSERT INTO classes (id, org_id, teacher_id, name, code, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		classID, orgID, node.Generate(), "U12 Skills", "ABC123", now, now,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO class_enrollments (id, org_id, class_id, student_id, joined_at) VALUES (?, ?, ?, ?, ?)`,
		node.Generate(), orgID, classID, enrolled, now,
	).Error)
	seedXP(t, db, orgID, enrolled, 10)
	seedXP(t, db, orgID, outsider, 90)
	ctx := context.Background()

	entries, err := svc.Rank(ctx, domain.Query{OrgID: orgID, ClassID: classID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enrolled.String(), entries[0].UserID)

	_, err = svc.Rank(ctx, domain.Query{OrgID: node.Generate(), ClassID: classID})
	assert.ErrorIs(t, err, domain.ErrClassNotFound)
}

func TestRankRejectsUnknownMetric(t *testing.T) {
	svc, _, node := setup(t, config.Config{})

	_, err := svc.Rank(context.Background(), domain.Query{OrgID: node.Generate(), Metric: "goals"})
	assert.ErrorIs(t, err, domain.ErrInvalidMetric)
}

func TestRankServesFromCache(t *testing.T) {
	cfg := config.Config{Leaderboard: config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100, CacheTTLSeconds: 60}}
	svc, db, node := setup(t, cfg)
	orgID := node.Generate()
	seedXP(t, db, orgID, node.Generate(), 10)
	ctx := context.Background()

	first, err := svc.Rank(ctx, domain.Query{OrgID: orgID})
	require.NoError(t, err)
	seedXP(t, db, orgID, node.Generate(), 20)

	second, err := svc.Rank(ctx, domain.Query{OrgID: orgID})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRefreshReplacesCachedBoard(t *testing.T) {
	cfg := config.Config{Leaderboard: config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100, CacheTTLSeconds: 3600}}
	svc, db, node := setup(t, cfg)
	orgID := node.Generate()
	early, late := node.Generate(), node.Generate()
	seedXP(t, db, orgID, early, 50)
	ctx := context.Background()

	before, err := svc.Rank(ctx, domain.Query{OrgID: orgID})
	require.NoError(t, err)
	require.Len(t, before, 1)
	seedXP(t, db, orgID, late, 500)

	refreshed, err := svc.Refresh(ctx, domain.Query{OrgID: orgID})
	require.NoError(t, err)
	require.Len(t, refreshed, 2)
	assert.Equal(t, late.String(), refreshed[0].UserID)

	cached, err := svc.Rank(ctx, domain.Query{OrgID: orgID})
	require.NoError(t, err)
	assert.Equal(t, refreshed, cached)
}
