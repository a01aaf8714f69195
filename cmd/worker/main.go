package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"mahalla-taskboard/pkg/config"
	"mahalla-taskboard/pkg/db"
	"mahalla-taskboard/pkg/logger"
	"mahalla-taskboard/pkg/queue"
	"mahalla-taskboard/pkg/redis"
	"mahalla-taskboard/services/broadcast"
	"mahalla-taskboard/services/task"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		queue.Client,
		queue.Server,
		fx.Provide(provideSnowflakeNode),
		task.WorkerModule,
		task.SchedulerModule,
		broadcast.WorkerModule,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
