package leaderboard

import (
	"github.com/smallbiznis/touchbase/internal/leaderboard/repository"
	"github.com/smallbiznis/touchbase/internal/leaderboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("leaderboard.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
