package exchangerate

import (
	"github.com/smallbiznis/motopos/internal/exchangerate/repository"
	"github.com/smallbiznis/motopos/internal/exchangerate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("exchangerate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
