package badge

import (
	"github.com/smallbiznis/touchbase/internal/badge/repository"
	"github.com/smallbiznis/touchbase/internal/badge/service"
	"go.uber.org/fx"
)

var Module = fx.Module("badge.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.ProvideEvaluator),
	fx.Provide(service.NewSeedHandler),
)
