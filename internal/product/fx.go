package product

import (
	"github.com/milkroute/milkroute/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(service.New),
)
