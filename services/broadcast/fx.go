package broadcast

import "go.uber.org/fx"

var Module = fx.Module("broadcast.service",
	fx.Provide(NewService),
)

var WorkerModule = fx.Module("broadcast.worker",
	fx.Provide(NewService),
	fx.Invoke(RegisterHandlers),
)
