package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/clock"
	"github.com/milkroute/milkroute/internal/config"
	"github.com/milkroute/milkroute/internal/logger"
	"github.com/milkroute/milkroute/internal/migration"
	"github.com/milkroute/milkroute/internal/server"
	"github.com/milkroute/milkroute/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// functional domains, wired through the HTTP server
		server.Module,
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
