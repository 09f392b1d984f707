package report

import (
	"context"

	"go.uber.org/fx"

	"interbot/pkg/bus"
	"interbot/pkg/config"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/version"
)

// Module provides the slash.Reporter used by the dispatcher.
var Module = fx.Module("report",
	fx.Provide(ProvideReporter),
)

// ProvideReporter records on the span synchronously, then logs and publishes
// in the background.
func ProvideReporter(lc fx.Lifecycle, cfg *config.Config, b bus.Bus, log *logger.Logger) slash.Reporter {
	log = log.Named("report")

	background := Multi{NewLogReporter(log)}
	if cfg.Reporter.Publish {
		background = append(background, NewBusReporter(b, version.AppName(), log))
	}
	async := NewAsync(background, cfg.Reporter.QueueSize, log)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return async.Close(ctx)
		},
	})

	return Multi{TraceReporter{}, async}
}
