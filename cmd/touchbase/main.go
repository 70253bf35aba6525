package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/clock"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/migration"
	"github.com/smallbiznis/touchbase/internal/observability"
	"github.com/smallbiznis/touchbase/internal/scheduler"
	"github.com/smallbiznis/touchbase/internal/server"
	"github.com/smallbiznis/touchbase/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Migrations run before the server invokes.
		migration.Module,
		server.Module,

		// Background jobs
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
