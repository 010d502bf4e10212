package barcode

import "go.uber.org/fx"

var Module = fx.Module("barcode",
	fx.Provide(NewGenerator),
)
