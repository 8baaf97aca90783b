package billing

import (
	"github.com/milkroute/milkroute/internal/billing/repository"
	"github.com/milkroute/milkroute/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
