package event

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const OrganizationCreatedTopic = "organization.created"

type OrganizationCreated struct {
	OrgID   snowflake.ID
	OwnerID snowflake.ID
	Name    string
}

// OrganizationCreatedHandler reacts after an organization and its owner membership are committed.
type OrganizationCreatedHandler interface {
	Name() string
	OnOrganizationCreated(ctx context.Context, evt OrganizationCreated) error
}

// HandlerOut lets feature modules contribute handlers to the dispatcher group.
type HandlerOut struct {
	fx.Out

	Handler OrganizationCreatedHandler `group:"organization.created"`
}

type DispatcherParams struct {
	fx.In

	Log      *zap.Logger
	Handlers []OrganizationCreatedHandler `group:"organization.created"`
}

// Dispatcher delivers events in-process. Handler failures are logged and never
// undo the organization that was already created.
type Dispatcher struct {
	log      *zap.Logger
	handlers []OrganizationCreatedHandler
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	return &Dispatcher{
		log:      p.Log.Named("organization.events"),
		handlers: p.Handlers,
	}
}

func (d *Dispatcher) PublishOrganizationCreated(ctx context.Context, evt OrganizationCreated) {
	if d == nil {
		return
	}
	for _, h := range d.handlers {
		if err := h.OnOrganizationCreated(ctx, evt); err != nil {
			d.log.Warn("organization event handler failed",
				zap.String("topic", OrganizationCreatedTopic),
				zap.String("handler", h.Name()),
				zap.String("org_id", evt.OrgID.String()),
				zap.Error(err),
			)
		}
	}
}
