package vacation

import (
	"github.com/milkroute/milkroute/internal/vacation/repository"
	"github.com/milkroute/milkroute/internal/vacation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vacation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
