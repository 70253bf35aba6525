package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/config"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	profiledomain "github.com/smallbiznis/touchbase/internal/profile/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DemoOrgName       = "Demo Academy"
	DemoOrgSlug       = "demo-academy"
	DemoOwnerExternal = "demo"
	DemoModuleSlug    = "touch-basics"
)

var demoSteps = []moduledomain.Step{
	{Title: "The field and the touch", Content: "Field dimensions, the six-touch rule and what counts as a touch.", Kind: "reading"},
	{Title: "The rollball", Content: "Play the ball back between your feet within one metre of the mark.", Kind: "drill"},
	{Title: "Defensive line speed", Content: "Retreat five metres, then move up together on the rollball.", Kind: "drill"},
	{Title: "Quiz", Content: "Five questions on touches, offside and the change of possession.", Kind: "quiz"},
}

// EnsureDemoOrg creates the demo organization, its owner, the default badge
// catalog and one published module. Every step is idempotent.
func EnsureDemoOrg(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed: db is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		owner, err := ensureOwner(tx, node, now)
		if err != nil {
			return err
		}

		org, err := ensureOrg(tx, node, now)
		if err != nil {
			return err
		}

		if err := ensureMember(tx, node, org.ID, owner.ID, now); err != nil {
			return err
		}

		if owner.DefaultOrgID == nil {
			if err := tx.Model(&profiledomain.Profile{}).
				Where("id = ?", owner.ID).
				Updates(map[string]any{"default_org_id": org.ID, "updated_at": now}).Error; err != nil {
				return err
			}
		}

		if err := ensureBadges(tx, node, org.ID, now); err != nil {
			return err
		}

		if err := ensureModule(tx, node, org.ID, owner.ID, now); err != nil {
			return err
		}

		log.Info("demo organization ready",
			zap.String("org_id", org.ID.String()),
			zap.String("owner_id", owner.ID.String()),
		)
		return nil
	})
}

func ensureOwner(tx *gorm.DB, node *snowflake.Node, now time.Time) (*profiledomain.Profile, error) {
	var profile profiledomain.Profile
	err := tx.Where("external_id = ?", DemoOwnerExternal).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = profiledomain.Profile{
		ID:          node.Generate(),
		ExternalID:  DemoOwnerExternal,
		DisplayName: "Demo Coach",
		Email:       "demo@touchbase.local",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func ensureOrg(tx *gorm.DB, node *snowflake.Node, now time.Time) (*organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.Where("slug = ?", DemoOrgSlug).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org = organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      DemoOrgName,
		Slug:      DemoOrgSlug,
		Metadata:  datatypes.JSONMap{"demo": true},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func ensureMember(tx *gorm.DB, node *snowflake.Node, orgID, userID snowflake.ID, now time.Time) error {
	var member organizationdomain.OrganizationMember
	err := tx.Where("org_id = ? AND user_id = ?", orgID, userID).First(&member).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	member = organizationdomain.OrganizationMember{
		ID:        node.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      organizationdomain.RoleOwner,
		CreatedAt: now,
	}
	return tx.Create(&member).Error
}

func ensureBadges(tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID, now time.Time) error {
	for _, def := range config.DefaultGamificationRules().Badges {
		badge := badgedomain.Badge{
			ID:           node.Generate(),
			OrgID:        orgID,
			Code:         def.Code,
			Name:         def.Name,
			Description:  def.Description,
			Category:     def.Category,
			Icon:         def.Icon,
			XPReward:     def.XPReward,
			Criteria:     def.Criteria,
			Threshold:    def.Threshold,
			MilestoneKey: def.MilestoneKey,
			Active:       true,
			CreatedAt:    now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "code"}},
			DoNothing: true,
		}).Create(&badge).Error
		if err != nil {
			return fmt.Errorf("seed badge %s: %w", def.Code, err)
		}
	}
	return nil
}

func ensureModule(tx *gorm.DB, node *snowflake.Node, orgID, authorID snowflake.ID, now time.Time) error {
	var count int64
	if err := tx.Unscoped().Model(&moduledomain.Module{}).
		Where("org_id = ? AND slug = ?", orgID, DemoModuleSlug).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	module := moduledomain.Module{
		ID:              node.Generate(),
		OrgID:           orgID,
		AuthorID:        authorID,
		Title:           "Touch Basics",
		Slug:            DemoModuleSlug,
		Description:     "A first pass through the rules and core skills of touch.",
		Difficulty:      moduledomain.DifficultyBeginner,
		DurationMinutes: 30,
		Steps:           datatypes.JSONSlice[moduledomain.Step](demoSteps),
		PublishedAt:     &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return tx.Create(&module).Error
}
