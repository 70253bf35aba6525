package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/internal/organization/event"
	"github.com/smallbiznis/touchbase/internal/organization/repository"
	"github.com/smallbiznis/touchbase/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingHandler struct {
	events []event.OrganizationCreated
}

func (h *recordingHandler) Name() string { return "recording" }

func (h *recordingHandler) OnOrganizationCreated(ctx context.Context, evt event.OrganizationCreated) error {
	h.events = append(h.events, evt)
	return nil
}

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *recordingHandler) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	handler := &recordingHandler{}
	dispatcher := event.NewDispatcher(event.DispatcherParams{
		Log:      zap.NewNop(),
		Handlers: []event.OrganizationCreatedHandler{handler},
	})
	svc := NewService(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Repo:       repository.NewRepository(db),
		GenID:      node,
		Dispatcher: dispatcher,
	})
	return svc, db, node, handler
}

func TestCreateMakesCreatorOwnerAndPublishes(t *testing.T) {
	svc, _, node, handler := setupService(t)
	ctx := context.Background()
	userID := node.Generate()

	org, err := svc.Create(ctx, userID, domain.CreateOrganizationRequest{Name: "  Jakarta Touch Club "})
	require.NoError(t, err)
	assert.Equal(t, "Jakarta Touch Club", org.Name)
	assert.Equal(t, "jakarta-touch-club", org.Slug)

	orgID, err := snowflake.ParseString(org.ID)
	require.NoError(t, err)

	role, err := svc.RoleOf(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	require.Len(t, handler.events, 1)
	assert.Equal(t, orgID, handler.events[0].OrgID)
	assert.Equal(t, userID, handler.events[0].OwnerID)
}

func TestCreateSuffixesDuplicateSlug(t *testing.T) {
	svc, _, node, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Academy"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Academy"})
	require.NoError(t, err)

	assert.Equal(t, "academy", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "academy-")
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, _, node, _ := setupService(t)

	_, err := svc.Create(context.Background(), node.Generate(), domain.CreateOrganizationRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestAddMemberAndList(t *testing.T) {
	svc, _, node, _ := setupService(t)
	ctx := context.Background()
	owner := node.Generate()
	student := node.Generate()

	org, err := svc.Create(ctx, owner, domain.CreateOrganizationRequest{Name: "School"})
	require.NoError(t, err)
	orgID, _ := snowflake.ParseString(org.ID)

	_, err = svc.AddMember(ctx, orgID, domain.AddMemberRequest{UserID: student, Role: "Student"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, orgID, domain.AddMemberRequest{UserID: student, Role: "student"})
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	_, err = svc.AddMember(ctx, orgID, domain.AddMemberRequest{UserID: node.Generate(), Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	members, err := svc.ListMembers(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	orgs, err := svc.ListOrganizationsByUser(ctx, student)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, domain.RoleStudent, orgs[0].Role)
}

func TestEnsureMemberIsIdempotent(t *testing.T) {
	svc, _, node, _ := setupService(t)
	ctx := context.Background()
	org, err := svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Club"})
	require.NoError(t, err)
	orgID, _ := snowflake.ParseString(org.ID)
	player := node.Generate()

	require.NoError(t, svc.EnsureMember(ctx, orgID, player, domain.RolePlayer))
	require.NoError(t, svc.EnsureMember(ctx, orgID, player, domain.RoleCoach))

	role, err := svc.RoleOf(ctx, orgID, player)
	require.NoError(t, err)
	assert.Equal(t, domain.RolePlayer, role)
}

func TestUpdateMemberRoleKeepsLastOwner(t *testing.T) {
	svc, _, node, _ := setupService(t)
	ctx := context.Background()
	owner := node.Generate()
	org, err := svc.Create(ctx, owner, domain.CreateOrganizationRequest{Name: "Club"})
	require.NoError(t, err)
	orgID, _ := snowflake.ParseString(org.ID)

	err = svc.UpdateMemberRole(ctx, orgID, owner, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrLastOwner)

	err = svc.UpdateMemberRole(ctx, orgID, node.Generate(), domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestRoleOfNonMember(t *testing.T) {
	svc, _, node, _ := setupService(t)

	_, err := svc.RoleOf(context.Background(), node.Generate(), node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotMember)
}
