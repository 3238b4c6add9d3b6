package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/recurshop/recurshop/internal/clock"
	"github.com/recurshop/recurshop/internal/config"
	"github.com/recurshop/recurshop/internal/customer"
	"github.com/recurshop/recurshop/internal/delivery"
	"github.com/recurshop/recurshop/internal/events"
	"github.com/recurshop/recurshop/internal/logger"
	"github.com/recurshop/recurshop/internal/matching"
	"github.com/recurshop/recurshop/internal/migration"
	obsmetrics "github.com/recurshop/recurshop/internal/observability/metrics"
	"github.com/recurshop/recurshop/internal/planning"
	"github.com/recurshop/recurshop/internal/product"
	"github.com/recurshop/recurshop/internal/scheduler"
	"github.com/recurshop/recurshop/internal/server"
	"github.com/recurshop/recurshop/internal/subscription"
	"github.com/recurshop/recurshop/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		obsmetrics.Module,
		migration.Module,
		events.Module,

		// Functional domains
		customer.Module,
		product.Module,
		subscription.Module,
		delivery.Module,
		matching.Module,
		planning.Module,
		scheduler.Module,

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
