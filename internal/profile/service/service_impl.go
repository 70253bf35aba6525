package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxDisplayNameLength = 120

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	OrgSvc organizationdomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	orgSvc organizationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("profile.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		orgSvc: p.OrgSvc,
	}
}

func (s *Service) EnsureProfile(ctx context.Context, req domain.EnsureProfileRequest) (*domain.Profile, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, domain.ErrInvalidExternalID
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	displayName := strings.TrimSpace(req.DisplayName)

	existing, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if email != "" && email != existing.Email {
			name := existing.DisplayName
			if name == "" {
				name = displayName
			}
			if err := s.repo.UpdateContact(ctx, existing.ID, email, name); err != nil {
				return nil, err
			}
			existing.Email = email
			existing.DisplayName = name
		}
		return existing, nil
	}

	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	now := time.Now().UTC()
	if err := s.repo.InsertIfAbsent(ctx, domain.Profile{
		ID:          s.genID.Generate(),
		ExternalID:  externalID,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return nil, err
	}

	// A concurrent first login may have won the insert; read back whichever row exists.
	profile, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrNotFound
	}
	s.log.Info("profile created", zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.ProfileResponse, error) {
	if id == 0 {
		return nil, domain.ErrInvalidProfile
	}
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(profile), nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateProfileRequest) (*domain.ProfileResponse, error) {
	if id == 0 {
		return nil, domain.ErrInvalidProfile
	}

	var defaultOrg snowflake.ID
	if req.DefaultOrgID != nil {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.DefaultOrgID))
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidDefaultOrg
		}
		if _, err := s.orgSvc.RoleOf(ctx, parsed, id); err != nil {
			if errors.Is(err, organizationdomain.ErrNotMember) {
				return nil, domain.ErrInvalidDefaultOrg
			}
			return nil, err
		}
		defaultOrg = parsed
	}

	var displayName string
	if req.DisplayName != nil {
		displayName = strings.TrimSpace(*req.DisplayName)
		if displayName == "" || len(displayName) > maxDisplayNameLength {
			return nil, domain.ErrInvalidName
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if req.DisplayName != nil {
			if err := repo.UpdateDisplayName(ctx, id, displayName); err != nil {
				return err
			}
		}
		if defaultOrg != 0 {
			if err := repo.UpdateDefaultOrg(ctx, id, defaultOrg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func defaultDisplayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "Member"
}

func toResponse(p *domain.Profile) *domain.ProfileResponse {
	resp := &domain.ProfileResponse{
		ID:          p.ID.String(),
		ExternalID:  p.ExternalID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.DefaultOrgID != nil && *p.DefaultOrgID != 0 {
		resp.DefaultOrgID = p.DefaultOrgID.String()
	}
	return resp
}
