package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/roster/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) InsertTeam(ctx context.Context, team domain.Team) error {
	return r.db.WithContext(ctx).Create(&team).Error
}

func (r *repository) FindTeam(ctx context.Context, orgID, id snowflake.ID) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).Take(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *repository) ListTeams(ctx context.Context, filter domain.TeamFilter) ([]domain.TeamSummary, error) {
	query := r.db.WithContext(ctx).
		Table("teams AS t").
		Select(`t.id, t.org_id, t.name, t.sport, t.season, t.coach_id, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM players p WHERE p.team_id = t.id AND p.active) AS player_count`).
		Where("t.org_id = ?", filter.OrgID)
	if filter.TeamID != 0 {
		query = query.Where("t.id = ?", filter.TeamID)
	}
	if filter.CoachID != 0 {
		query = query.Where("t.coach_id = ?", filter.CoachID)
	}
	if filter.Season != "" {
		query = query.Where("t.season = ?", filter.Season)
	}

	var rows []domain.TeamSummary
	if err := query.Order("t.season DESC, t.name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SaveTeam(ctx context.Context, team domain.Team) error {
	return r.db.WithContext(ctx).
		Model(&domain.Team{}).
		Where("org_id = ? AND id = ?", team.OrgID, team.ID).
		Select("name", "sport", "season", "coach_id", "updated_at").
		Updates(&team).Error
}

func (r *repository) DeleteTeam(ctx context.Context, orgID, id snowflake.ID) (bool, error) {
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND team_id = ?", orgID, id).
		Delete(&domain.Player{}).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).Delete(&domain.Team{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) InsertPlayer(ctx context.Context, player domain.Player) error {
	return r.db.WithContext(ctx).Create(&player).Error
}

func (r *repository) FindPlayer(ctx context.Context, orgID, id snowflake.ID) (*domain.Player, error) {
	var player domain.Player
	err := r.db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).Take(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *repository) ListPlayers(ctx context.Context, orgID, teamID snowflake.ID, includeInactive bool) ([]domain.Player, error) {
	query := r.db.WithContext(ctx).Where("org_id = ? AND team_id = ?", orgID, teamID)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	var players []domain.Player
	if err := query.Order("jersey_number IS NULL, jersey_number ASC, name ASC").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *repository) SavePlayer(ctx context.Context, player domain.Player) error {
	return r.db.WithContext(ctx).
		Model(&domain.Player{}).
		Where("org_id = ? AND id = ?", player.OrgID, player.ID).
		Select("name", "jersey_number", "position", "active", "updated_at").
		Updates(&player).Error
}

func (r *repository) DeletePlayer(ctx context.Context, orgID, id snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).Delete(&domain.Player{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
