package state

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Module is the fx module for the KV store.
var Module = fx.Module("state",
	fx.Provide(ProvideKV),
)

// ProvideKV opens the configured store and closes it when the app stops.
func ProvideKV(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (KV, error) {
	store, err := Open(log.Named("state"), cfg.State, cfg.Redis)
	if err != nil {
		return nil, err
	}
	log.Info("State store opened", zap.String("backend", cfg.State.Backend))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}
