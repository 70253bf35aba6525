package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/internal/organization/event"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	GenID      *snowflake.Node
	Dispatcher *event.Dispatcher `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	genID      *snowflake.Node
	dispatcher *event.Dispatcher
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("organization.service"),
		repo:       p.Repo,
		genID:      p.GenID,
		dispatcher: p.Dispatcher,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	orgID := s.genID.Generate()

	orgSlug, err := s.uniqueSlug(ctx, name, orgID)
	if err != nil {
		return nil, err
	}

	org := domain.Organization{
		ID:        orgID,
		Name:      name,
		Slug:      orgSlug,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		member := domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}
		return repo.AddMember(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", orgID.String()),
		zap.String("owner_id", userID.String()),
	)
	s.dispatcher.PublishOrganizationCreated(ctx, event.OrganizationCreated{
		OrgID:   orgID,
		OwnerID: userID,
		Name:    name,
	})

	return &domain.OrganizationResponse{
		ID:        orgID.String(),
		Name:      name,
		Slug:      org.Slug,
		CreatedAt: now,
	}, nil
}

func (s *service) GetByID(ctx context.Context, orgID snowflake.ID) (*domain.OrganizationResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	return &domain.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
	}, nil
}

func (s *service) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Slug:      item.Slug,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

func (s *service) ListMembers(ctx context.Context, orgID snowflake.ID) ([]domain.MemberResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.MemberResponse{
			UserID:      item.UserID.String(),
			Role:        item.Role,
			DisplayName: item.DisplayName,
			Email:       item.Email,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *service) AddMember(ctx context.Context, orgID snowflake.ID, req domain.AddMemberRequest) (*domain.MemberResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	role, ok := domain.NormalizeRole(req.Role)
	if !ok || role == domain.RoleOwner {
		return nil, domain.ErrInvalidRole
	}

	member := domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    req.UserID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	inserted, err := s.repo.InsertMemberIfAbsent(ctx, member)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, domain.ErrAlreadyMember
	}

	return &domain.MemberResponse{
		UserID:    member.UserID.String(),
		Role:      member.Role,
		CreatedAt: member.CreatedAt,
	}, nil
}

// EnsureMember adds the user with role unless a membership already exists.
func (s *service) EnsureMember(ctx context.Context, orgID, userID snowflake.ID, role string) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	normalized, ok := domain.NormalizeRole(role)
	if !ok {
		return domain.ErrInvalidRole
	}

	_, err := s.repo.InsertMemberIfAbsent(ctx, domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      normalized,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (s *service) UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	normalized, ok := domain.NormalizeRole(role)
	if !ok {
		return domain.ErrInvalidRole
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotMember
		}
		if current.Role == domain.RoleOwner && normalized != domain.RoleOwner {
			owners, err := repo.CountOwners(ctx, orgID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return domain.ErrLastOwner
			}
		}
		_, err = repo.UpdateMemberRole(ctx, orgID, userID, normalized)
		return err
	})
}

func (s *service) RoleOf(ctx context.Context, orgID, userID snowflake.ID) (string, error) {
	if orgID == 0 {
		return "", domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return "", domain.ErrInvalidUser
	}
	member, err := s.repo.FindMember(ctx, orgID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", domain.ErrNotMember
	}
	return member.Role, nil
}

func (s *service) uniqueSlug(ctx context.Context, name string, orgID snowflake.ID) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "org"
	}
	exists, err := s.repo.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	suffix := strings.ToLower(orgID.Base36())
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return base + "-" + suffix, nil
}
