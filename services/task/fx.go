package task

import "go.uber.org/fx"

var Module = fx.Module("task.service",
	fx.Provide(NewService),
)

var WorkerModule = fx.Module("task.worker",
	fx.Provide(NewService),
	fx.Invoke(RegisterHandlers),
)
