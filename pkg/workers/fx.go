package workers

import (
	"context"

	"go.uber.org/fx"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Module provides the dispatch worker pool.
var Module = fx.Module("workers",
	fx.Provide(ProvidePool),
)

// ProvidePool creates the pool and ties it to the app lifecycle. Stop drains
// for at most the configured drain timeout.
func ProvidePool(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) *Pool {
	pool := New(log.Named("workers"), cfg.Dispatcher.Workers, cfg.Dispatcher.QueueSize)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return pool.Start()
		},
		OnStop: func(ctx context.Context) error {
			drain, cancel := context.WithTimeout(ctx, cfg.DrainTimeout())
			defer cancel()
			return pool.Stop(drain)
		},
	})

	return pool
}
