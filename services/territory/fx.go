package territory

import (
	"go.uber.org/fx"
)

var Module = fx.Module("territory.service",
	fx.Provide(
		NewService,
	),
)
