package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	organizationrepository "github.com/smallbiznis/touchbase/internal/organization/repository"
	organizationservice "github.com/smallbiznis/touchbase/internal/organization/service"
	"github.com/smallbiznis/touchbase/internal/roster/domain"
	"github.com/smallbiznis/touchbase/internal/roster/repository"
	"github.com/smallbiznis/touchbase/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	orgID snowflake.ID
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	orgSvc := organizationservice.NewService(organizationservice.Params{
		DB: db, Log: zap.NewNop(), Repo: organizationrepository.NewRepository(db), GenID: node,
	})
	svc := New(Params{
		DB: db, Log: zap.NewNop(), GenID: node,
		Repo:   repository.Provide(db),
		OrgSvc: orgSvc,
	})
	return fixture{svc: svc, db: db, node: node, orgID: node.Generate()}
}

func (f fixture) team(t *testing.T, name string) snowflake.ID {
	t.Helper()
	created, err := f.svc.CreateTeam(context.Background(), domain.CreateTeamRequest{OrgID: f.orgID, Name: name, Sport: "touch", Season: "2024"})
	require.NoError(t, err)
	id, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)
	return id
}

func jersey(n int) *int { return &n }

func TestCreateTeam(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	coachID := f.node.Generate()
	testutil.AddMember(t, f.db, f.node, f.orgID, coachID, organizationdomain.RoleCoach)

	created, err := f.svc.CreateTeam(ctx, domain.CreateTeamRequest{
		OrgID: f.orgID, Name: " Sharks ", Season: "2024", CoachID: coachID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sharks", created.Name)
	assert.Equal(t, coachID.String(), created.CoachID)

	_, err = f.svc.CreateTeam(ctx, domain.CreateTeamRequest{OrgID: f.orgID, Name: "Sharks", Season: "2024"})
	assert.ErrorIs(t, err, domain.ErrDuplicateTeam)

	_, err = f.svc.CreateTeam(ctx, domain.CreateTeamRequest{OrgID: f.orgID, Name: "Sharks", Season: "2025"})
	require.NoError(t, err)

	student := f.node.Generate()
	testutil.AddMember(t, f.db, f.node, f.orgID, student, organizationdomain.RoleStudent)
	_, err = f.svc.CreateTeam(ctx, domain.CreateTeamRequest{OrgID: f.orgID, Name: "Rays", CoachID: student.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidCoach)

	_, err = f.svc.CreateTeam(ctx, domain.CreateTeamRequest{OrgID: f.orgID, Name: "Rays", CoachID: f.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrInvalidCoach)

	teams, err := f.svc.ListTeams(ctx, domain.ListTeamsRequest{OrgID: f.orgID, Season: "2024"})
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}

func TestJerseyNumbersUniquePerTeam(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sharks := f.team(t, "Sharks")
	rays := f.team(t, "Rays")

	first, err := f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Mia", JerseyNumber: jersey(7), Position: "Wing"})
	require.NoError(t, err)
	assert.Equal(t, "wing", first.Position)
	assert.True(t, first.Active)

	_, err = f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Leo", JerseyNumber: jersey(7)})
	assert.ErrorIs(t, err, domain.ErrJerseyTaken)

	_, err = f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: rays, Name: "Leo", JerseyNumber: jersey(7)})
	require.NoError(t, err)

	_, err = f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Ari"})
	require.NoError(t, err)
	_, err = f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Bo"})
	require.NoError(t, err)

	team, err := f.svc.GetTeam(ctx, f.orgID, sharks)
	require.NoError(t, err)
	assert.Equal(t, int64(3), team.PlayerCount)
}

func TestUpdateAndRemovePlayer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sharks := f.team(t, "Sharks")

	a, err := f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Mia", JerseyNumber: jersey(7)})
	require.NoError(t, err)
	b, err := f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Leo", JerseyNumber: jersey(9)})
	require.NoError(t, err)
	bID, _ := snowflake.ParseString(b.ID)

	_, err = f.svc.UpdatePlayer(ctx, domain.UpdatePlayerRequest{OrgID: f.orgID, ID: bID, JerseyNumber: jersey(7)})
	assert.ErrorIs(t, err, domain.ErrJerseyTaken)

	inactive := false
	updated, err := f.svc.UpdatePlayer(ctx, domain.UpdatePlayerRequest{OrgID: f.orgID, ID: bID, ClearJersey: true, Active: &inactive})
	require.NoError(t, err)
	assert.Nil(t, updated.JerseyNumber)
	assert.False(t, updated.Active)

	active, err := f.svc.ListPlayers(ctx, f.orgID, sharks, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	all, err := f.svc.ListPlayers(ctx, f.orgID, sharks, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.svc.RemovePlayer(ctx, f.orgID, bID))
	assert.ErrorIs(t, f.svc.RemovePlayer(ctx, f.orgID, bID), domain.ErrPlayerNotFound)
}

func TestDeleteTeamRemovesPlayers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sharks := f.team(t, "Sharks")
	_, err := f.svc.AddPlayer(ctx, domain.AddPlayerRequest{OrgID: f.orgID, TeamID: sharks, Name: "Mia"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteTeam(ctx, f.node.Generate(), sharks), domain.ErrTeamNotFound)
	require.NoError(t, f.svc.DeleteTeam(ctx, f.orgID, sharks))
	assert.ErrorIs(t, f.svc.DeleteTeam(ctx, f.orgID, sharks), domain.ErrTeamNotFound)

	var players int64
	require.NoError(t, f.db.Model(&domain.Player{}).Count(&players).Error)
	assert.Equal(t, int64(0), players)

	_, err = f.svc.GetTeam(ctx, f.orgID, sharks)
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}
