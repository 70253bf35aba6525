package progress

import (
	"github.com/smallbiznis/touchbase/internal/progress/repository"
	"github.com/smallbiznis/touchbase/internal/progress/service"
	"go.uber.org/fx"
)

var Module = fx.Module("progress.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
