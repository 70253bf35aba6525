package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/badge/repository"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/testutil"
	xprepository "github.com/smallbiznis/touchbase/internal/xp/repository"
	xpservice "github.com/smallbiznis/touchbase/internal/xp/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupBadgeService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	ledger := xpservice.NewLedger(xprepository.Provide(db), node)
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(db),
		Crediter: ledger,
		Rules:    config.NewStaticRulesHolder(config.DefaultGamificationRules()),
	})
	return svc, db, node
}

func countRows(t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Raw(query, args...).Scan(&n).Error)
	return n
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	svc, db, node := setupBadgeService(t)
	ctx := context.Background()
	orgID := node.Generate()

	n, err := svc.SeedDefaults(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, len(config.DefaultGamificationRules().Badges), n)

	n, err = svc.SeedDefaults(ctx, orgID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, int64(len(config.DefaultGamificationRules().Badges)),
		countRows(t, db, `SELECT COUNT(1) FROM badges WHERE org_id = ?`, orgID))
}

func TestEvaluateAwardsOnce(t *testing.T) {
	svc, db, node := setupBadgeService(t)
	ctx := context.Background()
	orgID := node.Generate()
	userID := node.Generate()
	_, err := svc.SeedDefaults(ctx, orgID)
	require.NoError(t, err)

	first, err := svc.Evaluate(ctx, orgID, userID, domain.XPTrigger(120))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "xp_100", first[0].Code)

	second, err := svc.Evaluate(ctx, orgID, userID, domain.XPTrigger(130))
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, int64(1), countRows(t, db, `SELECT COUNT(1) FROM user_badges WHERE user_id = ?`, userID))
}

func TestEvaluateCreditsReward(t *testing.T) {
	svc, db, node := setupBadgeService(t)
	ctx := context.Background()
	orgID := node.Generate()
	userID := node.Generate()
	_, err := svc.SeedDefaults(ctx, orgID)
	require.NoError(t, err)

	awarded, err := svc.Evaluate(ctx, orgID, userID, domain.MilestoneTrigger(domain.MilestoneModuleCompleted))
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "module_master", awarded[0].Code)
	assert.Equal(t, int64(25), awarded[0].XPReward)

	assert.Equal(t, int64(25), countRows(t, db,
		`SELECT total FROM xp_totals WHERE org_id = ? AND user_id = ?`, orgID, userID))
	assert.Equal(t, int64(1), countRows(t, db,
		`SELECT COUNT(1) FROM xp_events WHERE user_id = ? AND action = 'badge:module_master'`, userID))

	held, err := svc.ListForUser(ctx, orgID, userID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "module_master", held[0].Code)
}

func TestEvaluateStreakThresholds(t *testing.T) {
	svc, _, node := setupBadgeService(t)
	ctx := context.Background()
	orgID := node.Generate()
	userID := node.Generate()
	_, err := svc.SeedDefaults(ctx, orgID)
	require.NoError(t, err)

	awarded, err := svc.Evaluate(ctx, orgID, userID, domain.StreakTrigger(6))
	require.NoError(t, err)
	assert.Empty(t, awarded)

	awarded, err = svc.Evaluate(ctx, orgID, userID, domain.StreakTrigger(7))
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "streak_7", awarded[0].Code)
}

func TestCreateValidatesCriteria(t *testing.T) {
	svc, _, node := setupBadgeService(t)
	ctx := context.Background()
	orgID := node.Generate()

	_, err := svc.Create(ctx, domain.CreateBadgeRequest{OrgID: orgID, Code: "x", Name: "X", Criteria: "karma"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.Create(ctx, domain.CreateBadgeRequest{OrgID: orgID, Code: "x", Name: "X", Criteria: "streak"})
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)

	created, err := svc.Create(ctx, domain.CreateBadgeRequest{OrgID: orgID, Code: " Goal_Scorer ", Name: "Goal Scorer", Criteria: "milestone", MilestoneKey: "first_goal"})
	require.NoError(t, err)
	assert.Equal(t, "goal_scorer", created.Code)

	_, err = svc.Create(ctx, domain.CreateBadgeRequest{OrgID: orgID, Code: "goal_scorer", Name: "Again", Criteria: "milestone", MilestoneKey: "first_goal"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)

	list, err := svc.List(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
