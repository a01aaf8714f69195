package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mahalla-taskboard/internal/httpapi"
	"mahalla-taskboard/pkg/config"
	"mahalla-taskboard/pkg/db"
	"mahalla-taskboard/pkg/health"
	"mahalla-taskboard/pkg/logger"
	"mahalla-taskboard/pkg/queue"
	"mahalla-taskboard/pkg/redis"
	"mahalla-taskboard/pkg/sequence"
	"mahalla-taskboard/pkg/server"
	"mahalla-taskboard/pkg/storage"
	"mahalla-taskboard/services/broadcast"
	"mahalla-taskboard/services/stats"
	"mahalla-taskboard/services/task"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/user"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		queue.Client,
		sequence.Module,
		storage.Client,
		health.Module,
		fx.Provide(
			provideSnowflakeNode,
			server.ProvideHTTPServer,
		),
		territory.Module,
		user.Module,
		task.Module,
		stats.Module,
		broadcast.Module,
		httpapi.Module,
		fx.Invoke(
			db.Otel,
			db.Metric,
			autoMigrate,
			server.Run,
		),
		fxLogger,
	)

	app.Run()
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&territory.Region{}, &territory.District{}, &territory.Mahalla{},
		&user.User{},
		&task.Task{}, &task.StatusEvent{}, &task.Submission{}, &task.SubmissionFile{}, &task.Grade{},
		&broadcast.Broadcast{},
	)
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
