package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Module provides the tracer used by the dispatcher.
var Module = fx.Module("telemetry",
	fx.Provide(
		ProvideProvider,
		ProvideTracer,
	),
)

// ProvideProvider sets up tracing and flushes it on stop.
func ProvideProvider(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (*Provider, error) {
	p, err := Setup(context.Background(), cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Enabled() {
				log.Info("Tracing enabled",
					zap.String("endpoint", cfg.Telemetry.Endpoint),
					zap.Float64("sample_ratio", cfg.Telemetry.SampleRatio))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return p.Shutdown(ctx)
		},
	})
	return p, nil
}

// ProvideTracer exposes the provider's tracer.
func ProvideTracer(p *Provider) trace.Tracer {
	return p.Tracer()
}
