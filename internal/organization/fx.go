package organization

import (
	"github.com/smallbiznis/touchbase/internal/organization/event"
	"github.com/smallbiznis/touchbase/internal/organization/repository"
	"github.com/smallbiznis/touchbase/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(event.NewDispatcher),
	fx.Provide(service.NewService),
)
