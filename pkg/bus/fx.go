package bus

import (
	"context"

	"go.uber.org/fx"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Module is the fx module for the failure-report bus.
var Module = fx.Module("bus",
	fx.Provide(ProvideBus),
)

// ProvideBus opens the configured bus and ties delivery to the app lifecycle.
func ProvideBus(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (Bus, error) {
	b, err := Open(log.Named("bus"), cfg.Bus, cfg.Redis)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return b.Start()
		},
		OnStop: func(ctx context.Context) error {
			return b.Stop()
		},
	})
	return b, nil
}
