package xp

import (
	"github.com/smallbiznis/touchbase/internal/xp/repository"
	"github.com/smallbiznis/touchbase/internal/xp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("xp.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewLedger),
	fx.Provide(service.ProvideCrediter),
	fx.Provide(service.New),
)
