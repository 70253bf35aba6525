package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/touchbase/internal/module/domain"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("module.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateModuleRequest) (*domain.ModuleResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.AuthorID == 0 {
		return nil, domain.ErrInvalidAuthor
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyBeginner
	}

	id := s.genID.Generate()
	moduleSlug, err := s.uniqueSlug(ctx, req.OrgID, req.Title, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	module := domain.Module{
		ID:              id,
		OrgID:           req.OrgID,
		AuthorID:        req.AuthorID,
		Title:           req.Title,
		Slug:            moduleSlug,
		Description:     strings.TrimSpace(req.Description),
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
		Steps:           normalizeSteps(req.Steps),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, module); err != nil {
		return nil, err
	}

	s.log.Info("module created",
		zap.String("org_id", req.OrgID.String()),
		zap.String("module_id", id.String()),
	)
	return toResponse(&module), nil
}

func (s *Service) Get(ctx context.Context, orgID, id snowflake.ID) (*domain.ModuleResponse, error) {
	module, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(module), nil
}

func (s *Service) List(ctx context.Context, req domain.ListModulesRequest) (*domain.ListModulesResponse, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	after, err := req.After()
	if err != nil {
		return nil, err
	}
	var beforeID snowflake.ID
	if after != "" {
		parsed, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		beforeID = snowflake.ID(parsed)
	}

	limit := req.Limit()
	modules, err := s.repo.List(ctx, domain.ListFilter{
		OrgID:         req.OrgID,
		PublishedOnly: req.PublishedOnly,
		Difficulty:    strings.ToLower(strings.TrimSpace(req.Difficulty)),
		BeforeID:      beforeID,
		Limit:         limit + 1,
	})
	if err != nil {
		return nil, err
	}
	modules, pageInfo := pagination.BuildCursorPageInfo(modules, limit, func(m domain.Module) string {
		return m.ID.String()
	})

	resp := &domain.ListModulesResponse{
		Modules:  make([]domain.ModuleResponse, 0, len(modules)),
		PageInfo: pageInfo,
	}
	for i := range modules {
		resp.Modules = append(resp.Modules, *toResponse(&modules[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateModuleRequest) (*domain.ModuleResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	var updated *domain.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		module, err := s.findWith(ctx, repo, req.OrgID, req.ID)
		if err != nil {
			return err
		}
		if req.Steps != nil && module.Published() {
			return domain.ErrModulePublished
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return domain.ErrInvalidModule
			}
			module.Title = title
		}
		if req.Description != nil {
			module.Description = strings.TrimSpace(*req.Description)
		}
		if req.Difficulty != nil {
			module.Difficulty = strings.ToLower(strings.TrimSpace(*req.Difficulty))
		}
		if req.DurationMinutes != nil {
			module.DurationMinutes = *req.DurationMinutes
		}
		if req.Steps != nil {
			module.Steps = normalizeSteps(*req.Steps)
		}
		module.UpdatedAt = time.Now().UTC()

		if err := repo.Save(ctx, module); err != nil {
			return err
		}
		updated = module
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(updated), nil
}

// Publish freezes the step list. Publishing an already published module is a no-op.
func (s *Service) Publish(ctx context.Context, orgID, id snowflake.ID) (*domain.ModuleResponse, error) {
	var published *domain.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		module, err := s.findWith(ctx, repo, orgID, id)
		if err != nil {
			return err
		}
		published = module
		if module.Published() {
			return nil
		}
		if len(module.Steps) == 0 {
			return domain.ErrNoSteps
		}
		now := time.Now().UTC()
		module.PublishedAt = &now
		module.UpdatedAt = now
		return repo.Save(ctx, module)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("module published",
		zap.String("org_id", orgID.String()),
		zap.String("module_id", id.String()),
	)
	return toResponse(published), nil
}

func (s *Service) Delete(ctx context.Context, orgID, id snowflake.ID) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.ErrInvalidModule
	}
	deleted, err := s.repo.SoftDelete(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) find(ctx context.Context, orgID, id snowflake.ID) (*domain.Module, error) {
	return s.findWith(ctx, s.repo, orgID, id)
}

func (s *Service) findWith(ctx context.Context, repo domain.Repository, orgID, id snowflake.ID) (*domain.Module, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return nil, domain.ErrInvalidModule
	}
	module, err := repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, domain.ErrNotFound
	}
	return module, nil
}

func (s *Service) uniqueSlug(ctx context.Context, orgID snowflake.ID, title string, id snowflake.ID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "module"
	}
	exists, err := s.repo.SlugExists(ctx, orgID, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	suffix := strings.ToLower(id.Base36())
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return base + "-" + suffix, nil
}

func normalizeSteps(steps []domain.Step) []domain.Step {
	out := make([]domain.Step, 0, len(steps))
	for _, step := range steps {
		out = append(out, domain.Step{
			Title:   strings.TrimSpace(step.Title),
			Content: step.Content,
			Kind:    strings.ToLower(strings.TrimSpace(step.Kind)),
		})
	}
	return out
}

func toResponse(m *domain.Module) *domain.ModuleResponse {
	steps := []domain.Step(m.Steps)
	if steps == nil {
		steps = []domain.Step{}
	}
	return &domain.ModuleResponse{
		ID:              m.ID.String(),
		Title:           m.Title,
		Slug:            m.Slug,
		Description:     m.Description,
		Difficulty:      m.Difficulty,
		DurationMinutes: m.DurationMinutes,
		Steps:           steps,
		TotalSteps:      len(steps),
		AuthorID:        m.AuthorID.String(),
		Published:       m.Published(),
		PublishedAt:     m.PublishedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
