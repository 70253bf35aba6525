package classroom

import (
	"github.com/smallbiznis/touchbase/internal/classroom/repository"
	"github.com/smallbiznis/touchbase/internal/classroom/service"
	"go.uber.org/fx"
)

var Module = fx.Module("classroom.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
