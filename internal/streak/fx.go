package streak

import (
	"github.com/smallbiznis/touchbase/internal/streak/repository"
	"github.com/smallbiznis/touchbase/internal/streak/service"
	"go.uber.org/fx"
)

var Module = fx.Module("streak.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
