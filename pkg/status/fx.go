package status

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"interbot/pkg/bus"
	"interbot/pkg/config"
	"interbot/pkg/cron"
	"interbot/pkg/gateway"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/workers"
)

// Module provides the status API server.
var Module = fx.Module("status",
	fx.Provide(ProvideHub),
	fx.Provide(ProvideServer),
	fx.Invoke(registerLifecycle),
)

// ProvideHub creates the failure feed and subscribes it to the bus.
func ProvideHub(log *logger.Logger, b bus.Bus) *Hub {
	h := NewHub(log)
	h.Attach(b)
	return h
}

// ServerParams collects the components the status API reads.
type ServerParams struct {
	fx.In

	Config   *config.Config
	Log      *logger.Logger
	Hub      *Hub
	Registry *slash.Registry
	Stats    *slash.Stats
	Info     *gateway.Info
	Cron     *cron.Manager
	Bus      bus.Bus
	Pool     *workers.Pool
}

// ProvideServer builds the server from fx dependencies.
func ProvideServer(p ServerParams) *Server {
	return NewServer(p.Config.Status, p.Log, p.Hub, Deps{
		Registry: p.Registry,
		Stats:    p.Stats,
		Session:  p.Info,
		Jobs:     p.Cron,
		Metrics: map[string]MetricsSource{
			"bus":     p.Bus.GetMetrics,
			"workers": p.Pool.Metrics,
		},
	})
}

func registerLifecycle(lc fx.Lifecycle, s *Server, cfg *config.Config, log *logger.Logger) {
	if !cfg.Status.Enabled {
		log.Info("Status API disabled in config")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Stop(shutdownCtx); err != nil {
				log.Warn("Status server shutdown failed", zap.Error(err))
			}
			return nil
		},
	})
}
