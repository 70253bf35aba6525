package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/touchbase/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthorizeByMembershipRole(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})

	orgID := node.Generate()
	teacher := node.Generate()
	viewer := node.Generate()
	testutil.AddMember(t, db, node, orgID, teacher, "teacher")
	testutil.AddMember(t, db, node, orgID, viewer, "viewer")
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "user:"+teacher.String(), orgID.String(), ObjectModule, ActionModuleManage))
	assert.NoError(t, svc.Authorize(ctx, "user:"+viewer.String(), orgID.String(), ObjectLeaderboard, ActionLeaderboardView))

	err = svc.Authorize(ctx, "user:"+viewer.String(), orgID.String(), ObjectXP, ActionXPAward)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Authorize(ctx, "user:"+teacher.String(), orgID.String(), ObjectTeam, ActionTeamManage)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeNonMemberIsForbidden(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})

	err = svc.Authorize(context.Background(), "user:"+node.Generate().String(), node.Generate().String(), ObjectXP, ActionXPView)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeFollowsRoleChange(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})

	orgID := node.Generate()
	user := node.Generate()
	testutil.AddMember(t, db, node, orgID, user, "player")
	ctx := context.Background()
	actor := "user:" + user.String()

	assert.ErrorIs(t, svc.Authorize(ctx, actor, orgID.String(), ObjectTeam, ActionTeamManage), ErrForbidden)

	require.NoError(t, db.Exec(`UPDATE organization_members SET role = 'coach' WHERE user_id = ?`, user).Error)
	assert.NoError(t, svc.Authorize(ctx, actor, orgID.String(), ObjectTeam, ActionTeamManage))
}

func TestAuthorizeValidatesInput(t *testing.T) {
	db := testutil.OpenDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", "1", ObjectXP, ActionXPAward), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "api:1", "1", ObjectXP, ActionXPAward), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "", ObjectXP, ActionXPAward), ErrInvalidOrganization)
	assert.NoError(t, svc.Authorize(ctx, "system", "1", ObjectXP, ActionXPAward))
}

func TestPoliciesCoverEveryAction(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range policies() {
		seen[p[2]] = true
	}
	for action := range rolePolicy {
		assert.True(t, seen[action], action)
	}
}
