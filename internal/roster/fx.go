package roster

import (
	"github.com/smallbiznis/touchbase/internal/roster/repository"
	"github.com/smallbiznis/touchbase/internal/roster/service"
	"go.uber.org/fx"
)

var Module = fx.Module("roster.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
