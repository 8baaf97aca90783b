package scheduler

import (
	"context"

	"github.com/milkroute/milkroute/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Provide(NewRunner),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, cfg config.Config, runner *Runner, log *zap.Logger) {
	if !cfg.Scheduler.Enabled {
		log.Named("scheduler").Info("scheduler loop disabled")
		return
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go runner.RunForever(loopCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
