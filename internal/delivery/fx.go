package delivery

import (
	"github.com/milkroute/milkroute/internal/delivery/repository"
	"github.com/milkroute/milkroute/internal/delivery/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
