package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/internal/roster/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"github.com/smallbiznis/touchbase/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	OrgSvc organizationdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	orgSvc   organizationdomain.Service
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("roster.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		orgSvc:   p.OrgSvc,
		validate: validator.New(),
	}
}

func (s *Service) CreateTeam(ctx context.Context, req domain.CreateTeamRequest) (*domain.TeamResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Season = strings.TrimSpace(req.Season)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}
	coachID, err := s.coach(ctx, req.OrgID, req.CoachID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	team := domain.Team{
		ID:        s.genID.Generate(),
		OrgID:     req.OrgID,
		Name:      req.Name,
		Sport:     strings.TrimSpace(req.Sport),
		Season:    req.Season,
		CoachID:   coachID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).InsertTeam(ctx, team)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateTeam
		}
		return nil, err
	}

	s.log.Info("team created", zap.String("org_id", req.OrgID.String()), zap.String("team_id", team.ID.String()))
	return toTeamResponse(domain.TeamSummary{Team: team}), nil
}

func (s *Service) GetTeam(ctx context.Context, orgID, id snowflake.ID) (*domain.TeamResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return nil, domain.ErrInvalidTeam
	}
	rows, err := s.repo.ListTeams(ctx, domain.TeamFilter{OrgID: orgID, TeamID: id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrTeamNotFound
	}
	return toTeamResponse(rows[0]), nil
}

func (s *Service) ListTeams(ctx context.Context, req domain.ListTeamsRequest) ([]domain.TeamResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	rows, err := s.repo.ListTeams(ctx, domain.TeamFilter{
		OrgID:   req.OrgID,
		CoachID: req.CoachID,
		Season:  strings.TrimSpace(req.Season),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TeamResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toTeamResponse(row))
	}
	return out, nil
}

func (s *Service) UpdateTeam(ctx context.Context, req domain.UpdateTeamRequest) (*domain.TeamResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}
	team, err := s.findTeam(ctx, req.OrgID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		team.Name = strings.TrimSpace(*req.Name)
		if team.Name == "" {
			return nil, domain.ErrInvalidTeam
		}
	}
	if req.Sport != nil {
		team.Sport = strings.TrimSpace(*req.Sport)
	}
	if req.Season != nil {
		team.Season = strings.TrimSpace(*req.Season)
	}
	if req.CoachID != nil {
		team.CoachID, err = s.coach(ctx, req.OrgID, *req.CoachID)
		if err != nil {
			return nil, err
		}
	}
	team.UpdatedAt = time.Now().UTC()

	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).SaveTeam(ctx, *team)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateTeam
		}
		return nil, err
	}
	return s.GetTeam(ctx, req.OrgID, req.ID)
}

// DeleteTeam removes the team and its players.
func (s *Service) DeleteTeam(ctx context.Context, orgID, id snowflake.ID) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	var deleted bool
	err := rls.Transaction(ctx, s.db, int64(orgID), func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteTeam(ctx, orgID, id)
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrTeamNotFound
	}
	s.log.Info("team deleted", zap.String("org_id", orgID.String()), zap.String("team_id", id.String()))
	return nil
}

func (s *Service) AddPlayer(ctx context.Context, req domain.AddPlayerRequest) (*domain.PlayerResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}
	team, err := s.findTeam(ctx, req.OrgID, req.TeamID)
	if err != nil {
		return nil, err
	}
	profileID, err := s.member(ctx, req.OrgID, req.ProfileID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	player := domain.Player{
		ID:           s.genID.Generate(),
		OrgID:        req.OrgID,
		TeamID:       team.ID,
		ProfileID:    profileID,
		Name:         req.Name,
		JerseyNumber: req.JerseyNumber,
		Position:     strings.ToLower(strings.TrimSpace(req.Position)),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).InsertPlayer(ctx, player)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrJerseyTaken
		}
		return nil, err
	}
	return toPlayerResponse(&player), nil
}

func (s *Service) ListPlayers(ctx context.Context, orgID, teamID snowflake.ID, includeInactive bool) ([]domain.PlayerResponse, error) {
	if _, err := s.findTeam(ctx, orgID, teamID); err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx, orgID, teamID, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlayerResponse, 0, len(players))
	for i := range players {
		out = append(out, *toPlayerResponse(&players[i]))
	}
	return out, nil
}

func (s *Service) UpdatePlayer(ctx context.Context, req domain.UpdatePlayerRequest) (*domain.PlayerResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}
	player, err := s.findPlayer(ctx, req.OrgID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		player.Name = strings.TrimSpace(*req.Name)
		if player.Name == "" {
			return nil, domain.ErrInvalidPlayer
		}
	}
	switch {
	case req.ClearJersey:
		player.JerseyNumber = nil
	case req.JerseyNumber != nil:
		number := *req.JerseyNumber
		player.JerseyNumber = &number
	}
	if req.Position != nil {
		player.Position = strings.ToLower(strings.TrimSpace(*req.Position))
	}
	if req.Active != nil {
		player.Active = *req.Active
	}
	player.UpdatedAt = time.Now().UTC()

	err = rls.Transaction(ctx, s.db, int64(req.OrgID), func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).SavePlayer(ctx, *player)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrJerseyTaken
		}
		return nil, err
	}
	return toPlayerResponse(player), nil
}

func (s *Service) RemovePlayer(ctx context.Context, orgID, id snowflake.ID) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	deleted, err := s.repo.DeletePlayer(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *Service) findTeam(ctx context.Context, orgID, id snowflake.ID) (*domain.Team, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return nil, domain.ErrInvalidTeam
	}
	team, err := s.repo.FindTeam(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, domain.ErrTeamNotFound
	}
	return team, nil
}

func (s *Service) findPlayer(ctx context.Context, orgID, id snowflake.ID) (*domain.Player, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return nil, domain.ErrInvalidPlayer
	}
	player, err := s.repo.FindPlayer(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	return player, nil
}

// coach resolves an optional coach id; the coach must hold a coaching role in the org.
func (s *Service) coach(ctx context.Context, orgID snowflake.ID, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidCoach
	}
	role, err := s.orgSvc.RoleOf(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, organizationdomain.ErrNotMember) {
			return nil, domain.ErrInvalidCoach
		}
		return nil, err
	}
	switch role {
	case organizationdomain.RoleCoach, organizationdomain.RoleAdmin, organizationdomain.RoleOwner:
		return &id, nil
	default:
		return nil, domain.ErrInvalidCoach
	}
}

func (s *Service) member(ctx context.Context, orgID snowflake.ID, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidProfile
	}
	if _, err := s.orgSvc.RoleOf(ctx, orgID, id); err != nil {
		if errors.Is(err, organizationdomain.ErrNotMember) {
			return nil, domain.ErrInvalidProfile
		}
		return nil, err
	}
	return &id, nil
}

func toTeamResponse(row domain.TeamSummary) *domain.TeamResponse {
	resp := &domain.TeamResponse{
		ID:          row.ID.String(),
		Name:        row.Name,
		Sport:       row.Sport,
		Season:      row.Season,
		PlayerCount: row.PlayerCount,
		CreatedAt:   row.CreatedAt,
	}
	if row.CoachID != nil {
		resp.CoachID = row.CoachID.String()
	}
	return resp
}

func toPlayerResponse(p *domain.Player) *domain.PlayerResponse {
	resp := &domain.PlayerResponse{
		ID:           p.ID.String(),
		TeamID:       p.TeamID.String(),
		Name:         p.Name,
		JerseyNumber: p.JerseyNumber,
		Position:     p.Position,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
	}
	if p.ProfileID != nil {
		resp.ProfileID = p.ProfileID.String()
	}
	return resp
}
