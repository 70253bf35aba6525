package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/touchbase/internal/assignment"
	assignmentdomain "github.com/smallbiznis/touchbase/internal/assignment/domain"
	"github.com/smallbiznis/touchbase/internal/auth"
	"github.com/smallbiznis/touchbase/internal/authorization"
	"github.com/smallbiznis/touchbase/internal/badge"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/cache"
	"github.com/smallbiznis/touchbase/internal/classroom"
	classroomdomain "github.com/smallbiznis/touchbase/internal/classroom/domain"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/leaderboard"
	leaderboarddomain "github.com/smallbiznis/touchbase/internal/leaderboard/domain"
	"github.com/smallbiznis/touchbase/internal/module"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	"github.com/smallbiznis/touchbase/internal/observability"
	obsmiddleware "github.com/smallbiznis/touchbase/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/touchbase/internal/observability/metrics"
	obstracing "github.com/smallbiznis/touchbase/internal/observability/tracing"
	"github.com/smallbiznis/touchbase/internal/organization"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/internal/profile"
	profiledomain "github.com/smallbiznis/touchbase/internal/profile/domain"
	"github.com/smallbiznis/touchbase/internal/progress"
	progressdomain "github.com/smallbiznis/touchbase/internal/progress/domain"
	"github.com/smallbiznis/touchbase/internal/ratelimit"
	"github.com/smallbiznis/touchbase/internal/roster"
	rosterdomain "github.com/smallbiznis/touchbase/internal/roster/domain"
	"github.com/smallbiznis/touchbase/internal/streak"
	streakdomain "github.com/smallbiznis/touchbase/internal/streak/domain"
	"github.com/smallbiznis/touchbase/internal/xp"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	authorization.Module,
	ratelimit.Module,
	cache.Module,
	organization.Module,
	profile.Module,
	xp.Module,
	badge.Module,
	streak.Module,
	leaderboard.Module,
	module.Module,
	progress.Module,
	classroom.Module,
	assignment.Module,
	roster.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	db       *gorm.DB
	verifier *auth.Verifier
	authzSvc authorization.Service

	profileSvc      profiledomain.Service
	organizationSvc organizationdomain.Service
	xpSvc           xpdomain.Service
	streakSvc       streakdomain.Service
	badgeSvc        badgedomain.Service
	leaderboardSvc  leaderboarddomain.Service
	moduleSvc       moduledomain.Service
	progressSvc     progressdomain.Service
	classSvc        classroomdomain.Service
	assignmentSvc   assignmentdomain.Service
	rosterSvc       rosterdomain.Service

	xpLimiter  xpAwardLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Verifier        *auth.Verifier
	AuthzSvc        authorization.Service
	ProfileSvc      profiledomain.Service
	OrganizationSvc organizationdomain.Service
	XPSvc           xpdomain.Service
	StreakSvc       streakdomain.Service
	BadgeSvc        badgedomain.Service
	LeaderboardSvc  leaderboarddomain.Service
	ModuleSvc       moduledomain.Service
	ProgressSvc     progressdomain.Service
	ClassSvc        classroomdomain.Service
	AssignmentSvc   assignmentdomain.Service
	RosterSvc       rosterdomain.Service

	XPLimiter  *ratelimit.XPAwardLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		verifier:        p.Verifier,
		authzSvc:        p.AuthzSvc,
		profileSvc:      p.ProfileSvc,
		organizationSvc: p.OrganizationSvc,
		xpSvc:           p.XPSvc,
		streakSvc:       p.StreakSvc,
		badgeSvc:        p.BadgeSvc,
		leaderboardSvc:  p.LeaderboardSvc,
		moduleSvc:       p.ModuleSvc,
		progressSvc:     p.ProgressSvc,
		classSvc:        p.ClassSvc,
		assignmentSvc:   p.AssignmentSvc,
		rosterSvc:       p.RosterSvc,
		obsMetrics:      p.ObsMetrics,
	}
	if p.XPLimiter != nil {
		svc.xpLimiter = p.XPLimiter
	}

	svc.registerAccountRoutes()
	svc.registerGamificationRoutes()
	svc.registerLearningRoutes()
	svc.registerRosterRoutes()

	if !p.Cfg.IsProduction() {
		svc.engine.POST("/internal/test/cleanup", svc.TestCleanup)
	}

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerAccountRoutes covers routes that act on the caller rather than an organization.
func (s *Server) registerAccountRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/me", s.Me)
	api.PATCH("/me", s.UpdateMe)

	api.GET("/orgs", s.ListMyOrgs)
	api.POST("/orgs", s.CreateOrg)

	org := api.Group("/orgs/:orgId", s.OrgContext())
	{
		org.GET("", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberView), s.GetOrg)
		org.GET("/members", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberView), s.ListMembers)
		org.POST("/members", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberManage), s.AddMember)
		org.PATCH("/members/:userId", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberManage), s.UpdateMemberRole)
	}
}

func (s *Server) registerGamificationRoutes() {
	api := s.engine.Group("/api", s.AuthRequired(), s.OrgContext())

	// -------- XP --------
	api.POST("/xp/award", s.authorizeOrgAction(authorization.ObjectXP, authorization.ActionXPAward), s.XPAwardRateLimit(), s.AwardXP)
	api.GET("/xp/summary", s.authorizeOrgAction(authorization.ObjectXP, authorization.ActionXPView), s.GetXPSummary)
	api.GET("/xp/events", s.authorizeOrgAction(authorization.ObjectXP, authorization.ActionXPView), s.ListXPEvents)

	// -------- Streaks --------
	api.POST("/streaks/update", s.authorizeOrgAction(authorization.ObjectStreak, authorization.ActionStreakLog), s.UpdateStreak)
	api.GET("/streaks/me", s.authorizeOrgAction(authorization.ObjectXP, authorization.ActionXPView), s.GetMyStreak)
	api.GET("/streaks/leaderboard", s.authorizeOrgAction(authorization.ObjectLeaderboard, authorization.ActionLeaderboardView), s.GetStreakLeaderboard)

	// -------- Leaderboards --------
	api.GET("/leaderboards/org", s.authorizeOrgAction(authorization.ObjectLeaderboard, authorization.ActionLeaderboardView), s.GetOrgLeaderboard)
	api.GET("/leaderboards/class", s.authorizeOrgAction(authorization.ObjectLeaderboard, authorization.ActionLeaderboardView), s.GetClassLeaderboard)

	// -------- Badges --------
	api.GET("/badges/user", s.authorizeOrgAction(authorization.ObjectBadge, authorization.ActionBadgeView), s.ListUserBadges)
	api.GET("/badges", s.authorizeOrgAction(authorization.ObjectBadge, authorization.ActionBadgeView), s.ListBadges)
	api.POST("/badges", s.authorizeOrgAction(authorization.ObjectBadge, authorization.ActionBadgeManage), s.CreateBadge)
	api.POST("/badges/seed", s.authorizeOrgAction(authorization.ObjectBadge, authorization.ActionBadgeManage), s.SeedDefaultBadges)
}

func (s *Server) registerLearningRoutes() {
	api := s.engine.Group("/api", s.AuthRequired(), s.OrgContext())

	// -------- Progress --------
	api.POST("/progress/start", s.authorizeOrgAction(authorization.ObjectProgress, authorization.ActionProgressTrack), s.StartProgress)
	api.POST("/progress/update", s.authorizeOrgAction(authorization.ObjectProgress, authorization.ActionProgressTrack), s.UpdateProgress)
	api.GET("/progress", s.authorizeOrgAction(authorization.ObjectProgress, authorization.ActionProgressTrack), s.ListProgress)
	api.GET("/progress/:moduleId", s.authorizeOrgAction(authorization.ObjectProgress, authorization.ActionProgressTrack), s.GetProgress)

	// -------- Modules --------
	api.GET("/modules", s.authorizeOrgAction(authorization.ObjectModule, authorization.ActionModuleView), s.ListModules)
	api.POST("/modules", s.authorizeOrgAction(authorization.ObjectModule, authorization.ActionModuleManage), s.CreateModule)
	api.GET("/modules/:id", s.authorizeOrgAction(authorization.ObjectModule, authorization.ActionModuleView), s.GetModule)
	api.PATCH("/modules/:id", s.authorizeOrgAction(authorization.ObjectModule, authorization.ActionModuleManage), s.UpdateModule)
	api.POST("/modules/:id/publish", s.authorizeOrgAction(authorization.ObjectModule, authorization.ActionModuleManage), s.PublishModule)
	api.DELETE("/modules/:id", s.authorizeOrgAction(authorization.ObjectModule, authorization.ActionModuleManage), s.DeleteModule)

	// -------- Classes --------
	api.GET("/classes", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassView), s.ListClasses)
	api.POST("/classes", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassManage), s.CreateClass)
	api.POST("/classes/join", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassJoin), s.JoinClass)
	api.GET("/classes/:id", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassView), s.GetClass)
	api.GET("/classes/:id/roster", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassManage), s.GetClassRoster)
	api.POST("/classes/:id/code", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassManage), s.RegenerateClassCode)
	api.POST("/classes/:id/archive", s.authorizeOrgAction(authorization.ObjectClass, authorization.ActionClassManage), s.ArchiveClass)

	// -------- Assignments --------
	api.GET("/assignments", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentView), s.ListAssignments)
	api.POST("/assignments", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentManage), s.CreateAssignment)
	api.GET("/assignments/:id", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentView), s.GetAssignment)
	api.POST("/assignments/:id/publish", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentManage), s.PublishAssignment)
	api.GET("/assignments/:id/submissions", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentGrade), s.ListAssignmentSubmissions)
	api.GET("/assignments/:id/submission", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentSubmit), s.GetMySubmission)
	api.PUT("/assignments/:id/submission", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentSubmit), s.SaveSubmissionDraft)
	api.POST("/assignments/:id/submit", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentSubmit), s.SubmitAssignment)

	api.POST("/submissions/:id/grade", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentGrade), s.GradeSubmission)
	api.POST("/submissions/:id/return", s.authorizeOrgAction(authorization.ObjectAssignment, authorization.ActionAssignmentGrade), s.ReturnSubmission)
}

func (s *Server) registerRosterRoutes() {
	api := s.engine.Group("/api", s.AuthRequired(), s.OrgContext())

	api.GET("/teams", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamView), s.ListTeams)
	api.POST("/teams", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamManage), s.CreateTeam)
	api.GET("/teams/:id", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamView), s.GetTeam)
	api.PATCH("/teams/:id", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamManage), s.UpdateTeam)
	api.DELETE("/teams/:id", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamManage), s.DeleteTeam)
	api.GET("/teams/:id/players", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamView), s.ListPlayers)
	api.POST("/teams/:id/players", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamManage), s.AddPlayer)

	api.PATCH("/players/:id", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamManage), s.UpdatePlayer)
	api.DELETE("/players/:id", s.authorizeOrgAction(authorization.ObjectTeam, authorization.ActionTeamManage), s.RemovePlayer)
}
