package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor, orgID)
	if err != nil {
		s.logDenied(actor, orgID, object, action, err)
		return err
	}

	domain := fmt.Sprintf("org:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.logDenied(actor, orgID, object, action, ErrForbidden)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, orgID string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if !strings.HasPrefix(actor, "user:") {
		return "", "", ErrInvalidActor
	}

	userID, err := snowflake.ParseString(strings.TrimPrefix(actor, "user:"))
	if err != nil || userID == 0 {
		return "", "", ErrInvalidActor
	}
	parsedOrgID, err := snowflake.ParseString(orgID)
	if err != nil || parsedOrgID == 0 {
		return "", "", ErrInvalidOrganization
	}
	role, err := s.roleForUser(ctx, parsedOrgID, userID)
	if err != nil {
		return "", "", err
	}
	return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), nil
}

func (s *ServiceImpl) roleForUser(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM organization_members
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps exactly one role link per subject and domain so role changes take effect.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) logDenied(actor, orgID, object, action string, reason error) {
	s.log.Debug("authorization denied",
		zap.String("actor", actor),
		zap.String("org_id", orgID),
		zap.String("object", object),
		zap.String("action", action),
		zap.Error(reason),
	)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	for _, policy := range policies() {
		if len(policy) < 3 {
			continue
		}
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
