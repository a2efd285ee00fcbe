package main

import (
	"github.com/bundlewatch/bundlewatch/internal/collector"
	"github.com/bundlewatch/bundlewatch/internal/config"
	"github.com/bundlewatch/bundlewatch/internal/metrics"
	"github.com/bundlewatch/bundlewatch/internal/migration"
	"github.com/bundlewatch/bundlewatch/internal/server"
	"github.com/bundlewatch/bundlewatch/internal/taara"
	"github.com/bundlewatch/bundlewatch/internal/usage"
	"github.com/bundlewatch/bundlewatch/pkg/db"
	"github.com/bundlewatch/bundlewatch/pkg/log"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		metrics.Module,

		taara.Module,
		usage.Module,
		collector.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
