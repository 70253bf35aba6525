package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	badgerepository "github.com/smallbiznis/touchbase/internal/badge/repository"
	badgeservice "github.com/smallbiznis/touchbase/internal/badge/service"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/testutil"
	"github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/internal/xp/repository"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	badges badgedomain.Service
	db     *gorm.DB
	node   *snowflake.Node
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	rules := config.NewStaticRulesHolder(config.DefaultGamificationRules())
	repo := repository.Provide(db)
	ledger := NewLedger(repo, node)

	badges := badgeservice.New(badgeservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     badgerepository.Provide(db),
		Crediter: ledger,
		Rules:    rules,
	})
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      repo,
		Ledger:    ledger,
		Rules:     rules,
		Evaluator: badges,
	})
	return fixture{svc: svc, badges: badges, db: db, node: node}
}

func TestAwardAccumulates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	first, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionCompleteStep})
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.Delta)
	assert.Equal(t, int64(10), first.Total)

	second, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: "FINISH_MODULE"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), second.Delta)
	assert.Equal(t, int64(60), second.Total)
	assert.Equal(t, domain.ActionFinishModule, second.Action)
}

func TestAwardInvalidActionLeavesTotal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	_, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionStreakDay})
	require.NoError(t, err)

	_, err = f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: "hack_the_planet"})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)

	total, err := f.svc.GetTotal(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestAwardTotalsAreScopedPerOrganization(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := f.node.Generate()
	orgA, orgB := f.node.Generate(), f.node.Generate()

	_, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgA, UserID: userID, Action: domain.ActionFinishModule})
	require.NoError(t, err)
	res, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgB, UserID: userID, Action: domain.ActionDailyLogin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
}

func TestAwardStoresMetadataOpaquely(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	_, err := f.svc.Award(ctx, domain.AwardRequest{
		OrgID:         orgID,
		UserID:        userID,
		Action:        domain.ActionSubmitAssignment,
		SkillCategory: "Passing",
		Metadata:      json.RawMessage(`{"drill":"wide pass","reps":[1,2,3]}`),
	})
	require.NoError(t, err)

	_, err = f.svc.Award(ctx, domain.AwardRequest{
		OrgID:    orgID,
		UserID:   userID,
		Action:   domain.ActionCompleteStep,
		Metadata: json.RawMessage(`{not json`),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMetadata)

	events, err := f.svc.ListEvents(ctx, domain.ListEventsRequest{OrgID: orgID, UserID: userID})
	require.NoError(t, err)
	require.Len(t, events.Events, 1)
	assert.JSONEq(t, `{"drill":"wide pass","reps":[1,2,3]}`, string(events.Events[0].Metadata))
	assert.Equal(t, "passing", events.Events[0].SkillCategory)
}

func TestAwardTriggersXPBadges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()
	_, err := f.badges.SeedDefaults(ctx, orgID)
	require.NoError(t, err)

	_, err = f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionFinishModule})
	require.NoError(t, err)
	res, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionFinishModule})
	require.NoError(t, err)

	assert.Equal(t, int64(100), res.Total)
	require.Len(t, res.Badges, 1)
	assert.Equal(t, "xp_100", res.Badges[0].Code)

	again, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionDailyLogin})
	require.NoError(t, err)
	assert.Empty(t, again.Badges)
}

func TestAwardTotalIncludesBadgeReward(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()
	_, err := f.badges.Create(ctx, badgedomain.CreateBadgeRequest{
		OrgID:     orgID,
		Code:      "xp_60",
		Name:      "Warmed Up",
		Criteria:  badgedomain.CriteriaXPTotal,
		Threshold: 60,
		XPReward:  15,
	})
	require.NoError(t, err)

	_, err = f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionCompleteStep})
	require.NoError(t, err)
	res, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionFinishModule})
	require.NoError(t, err)

	require.Len(t, res.Badges, 1)
	assert.Equal(t, int64(50), res.Delta)
	assert.Equal(t, int64(75), res.Total)

	stored, err := f.svc.GetTotal(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, stored, res.Total)
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(ctx context.Context, orgID, userID snowflake.ID, trigger badgedomain.Trigger) ([]badgedomain.Awarded, error) {
	return nil, assert.AnError
}

func TestAwardSurvivesBadgeFailure(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	repo := repository.Provide(db)
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      repo,
		Ledger:    NewLedger(repo, node),
		Rules:     config.NewStaticRulesHolder(config.DefaultGamificationRules()),
		Evaluator: failingEvaluator{},
	})

	res, err := svc.Award(context.Background(), domain.AwardRequest{OrgID: node.Generate(), UserID: node.Generate(), Action: domain.ActionCompleteStep})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Total)
	assert.Empty(t, res.Badges)
}

func TestSummaryLevelsAndCategories(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionFinishModule, SkillCategory: "defense"})
		require.NoError(t, err)
	}
	_, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionCompleteStep, SkillCategory: "attack"})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(110), summary.Total)
	assert.Equal(t, 2, summary.Level.Level)
	require.NotNil(t, summary.NextLevel)
	assert.Equal(t, int64(190), summary.ToNext)
	assert.Equal(t, int64(100), summary.Categories["defense"])
	assert.Equal(t, int64(10), summary.Categories["attack"])
}

func TestListEventsPaginates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	orgID, userID := f.node.Generate(), f.node.Generate()
	for i := 0; i < 5; i++ {
		_, err := f.svc.Award(ctx, domain.AwardRequest{OrgID: orgID, UserID: userID, Action: domain.ActionDailyLogin})
		require.NoError(t, err)
	}

	page, err := f.svc.ListEvents(ctx, domain.ListEventsRequest{
		OrgID: orgID, UserID: userID, Pagination: pagination.Pagination{PageSize: 3},
	})
	require.NoError(t, err)
	assert.Len(t, page.Events, 3)
	assert.True(t, page.PageInfo.HasMore)

	rest, err := f.svc.ListEvents(ctx, domain.ListEventsRequest{
		OrgID: orgID, UserID: userID, Pagination: pagination.Pagination{PageSize: 3, PageToken: page.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	assert.Len(t, rest.Events, 2)
	assert.False(t, rest.PageInfo.HasMore)

	_, err = f.svc.ListEvents(ctx, domain.ListEventsRequest{
		OrgID: orgID, UserID: userID, Pagination: pagination.Pagination{PageToken: "%%%"},
	})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}

func TestCreditRejectsNonPositivePoints(t *testing.T) {
	f := setup(t)
	err := f.svc.Credit(context.Background(), f.db, domain.CreditRequest{
		OrgID: f.node.Generate(), UserID: f.node.Generate(), Source: "badge:x", Points: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPoints)
}
