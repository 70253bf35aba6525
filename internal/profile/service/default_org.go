package service

import (
	"context"

	"github.com/smallbiznis/touchbase/internal/organization/event"
	"github.com/smallbiznis/touchbase/internal/profile/domain"
	"go.uber.org/zap"
)

type defaultOrgHandler struct {
	repo domain.Repository
	log  *zap.Logger
}

// NewDefaultOrgHandler makes a newly created organization the owner's default when none is set.
func NewDefaultOrgHandler(repo domain.Repository, log *zap.Logger) event.HandlerOut {
	return event.HandlerOut{
		Handler: &defaultOrgHandler{repo: repo, log: log.Named("profile.default_org")},
	}
}

func (h *defaultOrgHandler) Name() string { return "profile.default_org" }

func (h *defaultOrgHandler) OnOrganizationCreated(ctx context.Context, evt event.OrganizationCreated) error {
	updated, err := h.repo.SetDefaultOrgIfEmpty(ctx, evt.OwnerID, evt.OrgID)
	if err != nil {
		return err
	}
	if updated {
		h.log.Debug("default organization set",
			zap.String("profile_id", evt.OwnerID.String()),
			zap.String("org_id", evt.OrgID.String()),
		)
	}
	return nil
}
