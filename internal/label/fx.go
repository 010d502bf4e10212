package label

import "go.uber.org/fx"

var Module = fx.Module("label.service",
	fx.Provide(NewCache),
	fx.Provide(New),
)
