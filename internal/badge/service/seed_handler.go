package service

import (
	"context"

	"github.com/smallbiznis/touchbase/internal/badge/domain"
	"github.com/smallbiznis/touchbase/internal/organization/event"
	"go.uber.org/zap"
)

type seedHandler struct {
	svc domain.Service
	log *zap.Logger
}

// NewSeedHandler seeds the default catalog into every new organization.
func NewSeedHandler(svc domain.Service, log *zap.Logger) event.HandlerOut {
	return event.HandlerOut{
		Handler: &seedHandler{svc: svc, log: log.Named("badge.seed")},
	}
}

func (h *seedHandler) Name() string { return "badge.seed_defaults" }

func (h *seedHandler) OnOrganizationCreated(ctx context.Context, evt event.OrganizationCreated) error {
	n, err := h.svc.SeedDefaults(ctx, evt.OrgID)
	if err != nil {
		return err
	}
	h.log.Info("badge catalog seeded", zap.String("org_id", evt.OrgID.String()), zap.Int("badges", n))
	return nil
}
