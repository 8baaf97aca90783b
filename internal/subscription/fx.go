package subscription

import (
	"github.com/milkroute/milkroute/internal/subscription/repository"
	"github.com/milkroute/milkroute/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
