package checks

import (
	"go.uber.org/fx"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Module provides the shared check set.
var Module = fx.Module("checks",
	fx.Provide(ProvideSet),
)

// ProvideSet builds the allow list and rate limit from configuration.
func ProvideSet(cfg *config.Config, log *logger.Logger) *Set {
	limiter := NewRateLimiter(cfg.Dispatcher.RateLimit.PerMinute, cfg.Dispatcher.RateLimit.Burst)
	return NewSet(
		AllowList(log.Named("checks"), cfg.Discord.AllowFrom),
		limiter.Check(),
	)
}
