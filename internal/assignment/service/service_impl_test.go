package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/touchbase/internal/assignment/domain"
	"github.com/smallbiznis/touchbase/internal/assignment/repository"
	classroomdomain "github.com/smallbiznis/touchbase/internal/classroom/domain"
	classroomrepository "github.com/smallbiznis/touchbase/internal/classroom/repository"
	classroomservice "github.com/smallbiznis/touchbase/internal/classroom/service"
	"github.com/smallbiznis/touchbase/internal/config"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	modulerepository "github.com/smallbiznis/touchbase/internal/module/repository"
	moduleservice "github.com/smallbiznis/touchbase/internal/module/service"
	"github.com/smallbiznis/touchbase/internal/testutil"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	xprepository "github.com/smallbiznis/touchbase/internal/xp/repository"
	xpservice "github.com/smallbiznis/touchbase/internal/xp/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc       domain.Service
	classes   classroomdomain.Service
	xp        xpdomain.Service
	node      *snowflake.Node
	orgID     snowflake.ID
	classID   snowflake.ID
	studentID snowflake.ID
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	log := zap.NewNop()
	rules := config.NewStaticRulesHolder(config.DefaultGamificationRules())

	xpRepo := xprepository.Provide(db)
	xpSvc := xpservice.New(xpservice.Params{
		DB: db, Log: log, Repo: xpRepo, Ledger: xpservice.NewLedger(xpRepo, node), Rules: rules,
	})
	classes := classroomservice.New(classroomservice.Params{
		DB: db, Log: log, GenID: node, Repo: classroomrepository.Provide(db),
	})
	modules := moduleservice.New(moduleservice.Params{
		DB: db, Log: log, GenID: node, Repo: modulerepository.Provide(db),
	})
	svc := New(Params{
		DB: db, Log: log, GenID: node,
		Repo:    repository.Provide(db),
		Classes: classes,
		Modules: modules,
		XPSvc:   xpSvc,
	})

	f := fixture{svc: svc, classes: classes, xp: xpSvc, node: node, orgID: node.Generate(), studentID: node.Generate()}
	class, err := classes.Create(ctx, classroomdomain.CreateClassRequest{OrgID: f.orgID, TeacherID: node.Generate(), Name: "Biology"})
	require.NoError(t, err)
	f.classID, err = snowflake.ParseString(class.ID)
	require.NoError(t, err)
	_, err = classes.Join(ctx, classroomdomain.JoinRequest{OrgID: f.orgID, StudentID: f.studentID, Code: class.Code})
	require.NoError(t, err)

	return f
}

func (f fixture) published(t *testing.T, maxPoints int) snowflake.ID {
	t.Helper()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, domain.CreateAssignmentRequest{
		OrgID:     f.orgID,
		CreatedBy: f.node.Generate(),
		ClassID:   f.classID.String(),
		Title:     "Cell diagram",
		MaxPoints: maxPoints,
	})
	require.NoError(t, err)
	id, _ := snowflake.ParseString(created.ID)
	published, err := f.svc.Publish(ctx, f.orgID, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPublished, published.Status)
	return id
}

func (f fixture) total(t *testing.T) int64 {
	t.Helper()
	total, err := f.xp.GetTotal(context.Background(), f.orgID, f.studentID)
	require.NoError(t, err)
	return total
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateAssignmentRequest{OrgID: f.orgID, ClassID: f.classID.String(), Title: "Essay"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxPoints, created.MaxPoints)
	assert.Equal(t, domain.StatusDraft, created.Status)

	_, err = f.svc.Create(ctx, domain.CreateAssignmentRequest{OrgID: f.orgID, ClassID: "abc", Title: "Essay"})
	assert.ErrorIs(t, err, domain.ErrInvalidClass)

	_, err = f.svc.Create(ctx, domain.CreateAssignmentRequest{OrgID: f.orgID, ClassID: f.node.Generate().String(), Title: "Essay"})
	assert.ErrorIs(t, err, classroomdomain.ErrNotFound)

	_, err = f.svc.Create(ctx, domain.CreateAssignmentRequest{
		OrgID: f.orgID, ClassID: f.classID.String(), Title: "Essay", ModuleID: f.node.Generate().String(),
	})
	assert.ErrorIs(t, err, moduledomain.ErrNotFound)

	_, err = f.svc.Create(ctx, domain.CreateAssignmentRequest{OrgID: f.orgID, ClassID: f.classID.String()})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestSubmissionLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	assignmentID := f.published(t, 10)
	req := domain.SubmitRequest{OrgID: f.orgID, AssignmentID: assignmentID, StudentID: f.studentID}

	req.Content = json.RawMessage(`{"text":"draft"}`)
	draft, err := f.svc.SaveDraft(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionDraft, draft.Status)
	assert.Nil(t, draft.SubmittedAt)

	req.Content = json.RawMessage(`{"text":"final"}`)
	submitted, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, submitted.Submission.Status)
	assert.Equal(t, int64(20), submitted.XPAwarded)
	assert.JSONEq(t, `{"text":"final"}`, string(submitted.Submission.Content))

	_, err = f.svc.Submit(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	submissionID, _ := snowflake.ParseString(submitted.Submission.ID)
	_, err = f.svc.Return(ctx, f.orgID, submissionID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	over := 11
	_, err = f.svc.Grade(ctx, domain.GradeRequest{OrgID: f.orgID, SubmissionID: submissionID, Score: &over})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)

	score := 7
	graded, err := f.svc.Grade(ctx, domain.GradeRequest{OrgID: f.orgID, SubmissionID: submissionID, Score: &score, Feedback: "Label the nucleus"})
	require.NoError(t, err)
	assert.False(t, graded.Perfect)
	assert.Equal(t, int64(0), graded.XPAwarded)
	require.NotNil(t, graded.Submission.Score)
	assert.Equal(t, 7, *graded.Submission.Score)

	returned, err := f.svc.Return(ctx, f.orgID, submissionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionReturned, returned.Status)
	assert.NotNil(t, returned.ReturnedAt)

	resubmitted, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resubmitted.XPAwarded)

	perfect := 10
	regraded, err := f.svc.Grade(ctx, domain.GradeRequest{OrgID: f.orgID, SubmissionID: submissionID, Score: &perfect})
	require.NoError(t, err)
	assert.True(t, regraded.Perfect)
	assert.Equal(t, int64(25), regraded.XPAwarded)

	again, err := f.svc.Grade(ctx, domain.GradeRequest{OrgID: f.orgID, SubmissionID: submissionID, Score: &perfect})
	require.NoError(t, err)
	assert.True(t, again.Perfect)
	assert.Equal(t, int64(0), again.XPAwarded)

	assert.Equal(t, int64(45), f.total(t))

	list, err := f.svc.ListSubmissions(ctx, f.orgID, assignmentID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmitRequiresPublishedAndEnrollment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, domain.CreateAssignmentRequest{OrgID: f.orgID, ClassID: f.classID.String(), Title: "Quiz"})
	require.NoError(t, err)
	draftID, _ := snowflake.ParseString(draft.ID)
	_, err = f.svc.Submit(ctx, domain.SubmitRequest{OrgID: f.orgID, AssignmentID: draftID, StudentID: f.studentID})
	assert.ErrorIs(t, err, domain.ErrNotPublished)

	publishedID := f.published(t, 0)
	_, err = f.svc.Submit(ctx, domain.SubmitRequest{OrgID: f.orgID, AssignmentID: publishedID, StudentID: f.node.Generate()})
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{
		OrgID: f.orgID, AssignmentID: publishedID, StudentID: f.studentID, Content: json.RawMessage(`{oops`),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidContent)

	_, err = f.svc.GetSubmission(ctx, f.orgID, publishedID, f.studentID)
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	assert.Equal(t, int64(0), f.total(t))
}

func TestListFiltersPublished(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateAssignmentRequest{OrgID: f.orgID, ClassID: f.classID.String(), Title: "Hidden"})
	require.NoError(t, err)
	f.published(t, 0)

	all, err := f.svc.List(ctx, domain.ListAssignmentsRequest{OrgID: f.orgID, ClassID: f.classID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := f.svc.List(ctx, domain.ListAssignmentsRequest{OrgID: f.orgID, ClassID: f.classID, PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Cell diagram", visible[0].Title)
}
