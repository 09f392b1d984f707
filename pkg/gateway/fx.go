package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/fx"

	"interbot/pkg/bus"
	"interbot/pkg/config"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
	"interbot/pkg/workers"
)

// Module provides the Discord session, its slash adapters and the gateway.
var Module = fx.Module("gateway",
	fx.Provide(
		ProvideSession,
		fx.Annotate(NewCapabilities, fx.As(new(slash.CapabilityProvider))),
		NewModeration,
		NewInfo,
		ProvideCommandSync,
		ProvideGateway,
	),
	fx.Invoke(registerAlerts),
	fx.Invoke(registerLifecycle),
)

// ProvideSession creates the bot session from configuration.
func ProvideSession(cfg *config.Config) (*discordgo.Session, error) {
	return NewSession(cfg.Discord)
}

// ProvideCommandSync wires command sync to the registry and state store.
func ProvideCommandSync(session *discordgo.Session, registry *slash.Registry, kv state.KV, log *logger.Logger) *CommandSync {
	return NewCommandSync(session, registry, kv, log.Named("sync"))
}

// ProvideGateway creates the gateway. The dispatcher is requested before the
// pool so the pool is constructed later and its stop hook runs ahead of the
// reporter's.
func ProvideGateway(
	cfg *config.Config,
	session *discordgo.Session,
	dispatcher *slash.Dispatcher,
	pool *workers.Pool,
	translator slash.Translator,
	sync *CommandSync,
	log *logger.Logger,
) *Gateway {
	return New(session, cfg.Discord, dispatcher, pool, translator, sync, log.Named("gateway"))
}

// registerLifecycle builds the gateway and opens the session on start. Its
// hook is appended after those of its dependencies, so it stops first.
func registerLifecycle(lc fx.Lifecycle, g *Gateway) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return g.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return g.Stop(ctx)
		},
	})
}

func registerAlerts(session *discordgo.Session, b bus.Bus, cfg *config.Config, log *logger.Logger) {
	NewAlertSink(session, cfg.Discord.AlertChannelID, log.Named("alerts")).Attach(b)
}
