package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/touchbase/internal/module/domain"
	"github.com/smallbiznis/touchbase/internal/module/repository"
	"github.com/smallbiznis/touchbase/internal/testutil"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(db),
	})
	return svc, node
}

func twoSteps() []domain.Step {
	return []domain.Step{
		{Title: "Warm up", Content: "Stretch for five minutes"},
		{Title: " Drill ", Content: "Passing drill", Kind: "Video"},
	}
}

func TestCreateModuleDefaults(t *testing.T) {
	svc, node := setup(t)
	ctx := context.Background()
	orgID, authorID := node.Generate(), node.Generate()

	created, err := svc.Create(ctx, domain.CreateModuleRequest{
		OrgID:    orgID,
		AuthorID: authorID,
		Title:    "  Intro to Passing ",
		Steps:    twoSteps(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Intro to Passing", created.Title)
	assert.Equal(t, "intro-to-passing", created.Slug)
	assert.Equal(t, domain.DifficultyBeginner, created.Difficulty)
	assert.Equal(t, 2, created.TotalSteps)
	assert.Equal(t, "Drill", created.Steps[1].Title)
	assert.Equal(t, "video", created.Steps[1].Kind)
	assert.False(t, created.Published)

	again, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: authorID, Title: "Intro to passing"})
	require.NoError(t, err)
	assert.NotEqual(t, created.Slug, again.Slug)
	assert.Contains(t, again.Slug, "intro-to-passing-")
	assert.Equal(t, 0, again.TotalSteps)
	assert.NotNil(t, again.Steps)
}

func TestCreateModuleValidation(t *testing.T) {
	svc, node := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateModuleRequest{AuthorID: node.Generate(), Title: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	_, err = svc.Create(ctx, domain.CreateModuleRequest{OrgID: node.Generate(), AuthorID: node.Generate(), Title: "   "})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.Create(ctx, domain.CreateModuleRequest{
		OrgID:      node.Generate(),
		AuthorID:   node.Generate(),
		Title:      "Bad",
		Difficulty: "impossible",
	})
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.Create(ctx, domain.CreateModuleRequest{
		OrgID:    node.Generate(),
		AuthorID: node.Generate(),
		Title:    "Missing step title",
		Steps:    []domain.Step{{Content: "no title"}},
	})
	assert.ErrorAs(t, err, &verrs)
}

func TestGetIsScopedToOrganization(t *testing.T) {
	svc, node := setup(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: node.Generate(), Title: "Scoped"})
	require.NoError(t, err)
	id, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	got, err := svc.Get(ctx, orgID, id)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, node.Generate(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublishFreezesSteps(t *testing.T) {
	svc, node := setup(t)
	ctx := context.Background()
	orgID := node.Generate()

	empty, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: node.Generate(), Title: "Empty"})
	require.NoError(t, err)
	emptyID, _ := snowflake.ParseString(empty.ID)
	_, err = svc.Publish(ctx, orgID, emptyID)
	assert.ErrorIs(t, err, domain.ErrNoSteps)

	created, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: node.Generate(), Title: "Full", Steps: twoSteps()})
	require.NoError(t, err)
	id, _ := snowflake.ParseString(created.ID)

	published, err := svc.Publish(ctx, orgID, id)
	require.NoError(t, err)
	assert.True(t, published.Published)
	require.NotNil(t, published.PublishedAt)

	steps := []domain.Step{{Title: "Only"}}
	_, err = svc.Update(ctx, domain.UpdateModuleRequest{OrgID: orgID, ID: id, Steps: &steps})
	assert.ErrorIs(t, err, domain.ErrModulePublished)

	title := "Renamed"
	updated, err := svc.Update(ctx, domain.UpdateModuleRequest{OrgID: orgID, ID: id, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 2, updated.TotalSteps)
	assert.True(t, updated.Published)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, node := setup(t)
	ctx := context.Background()
	orgID := node.Generate()

	for _, title := range []string{"One", "Two", "Three"} {
		created, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: node.Generate(), Title: title, Steps: twoSteps()})
		require.NoError(t, err)
		if title != "Two" {
			id, _ := snowflake.ParseString(created.ID)
			_, err = svc.Publish(ctx, orgID, id)
			require.NoError(t, err)
		}
	}

	published, err := svc.List(ctx, domain.ListModulesRequest{OrgID: orgID, PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, published.Modules, 2)

	page, err := svc.List(ctx, domain.ListModulesRequest{OrgID: orgID, Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, page.Modules, 2)
	assert.True(t, page.PageInfo.HasMore)
	assert.Equal(t, "Three", page.Modules[0].Title)

	rest, err := svc.List(ctx, domain.ListModulesRequest{
		OrgID:      orgID,
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, rest.Modules, 1)
	assert.Equal(t, "One", rest.Modules[0].Title)
	assert.False(t, rest.PageInfo.HasMore)

	_, err = svc.List(ctx, domain.ListModulesRequest{OrgID: orgID, Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}

func TestDeleteHidesModule(t *testing.T) {
	svc, node := setup(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: node.Generate(), Title: "Temp"})
	require.NoError(t, err)
	id, _ := snowflake.ParseString(created.ID)

	require.NoError(t, svc.Delete(ctx, orgID, id))
	_, err = svc.Get(ctx, orgID, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, orgID, id), domain.ErrNotFound)

	recreated, err := svc.Create(ctx, domain.CreateModuleRequest{OrgID: orgID, AuthorID: node.Generate(), Title: "Temp"})
	require.NoError(t, err)
	assert.NotEqual(t, "temp", recreated.Slug)
}
