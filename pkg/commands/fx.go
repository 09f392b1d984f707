package commands

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"interbot/pkg/gateway"
	"interbot/pkg/i18n"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/slash/checks"
)

// Module registers the built-in commands with the slash catalog.
var Module = fx.Module("commands",
	fx.Provide(
		func() *Directory { return &Directory{} },
		slash.AsRegistration(pingRegistration),
		slash.AsRegistration(statsRegistration),
		slash.AsRegistration(helpRegistration),
		slash.AsRegistration(aboutRegistration),
		slash.AsRegistration(adminRegistration),
		slash.AsRegistration(settingsRegistration),
	),
	fx.Invoke(fillDirectory),
)

func pingRegistration(info *gateway.Info, set *checks.Set) slash.Registration {
	return slash.Registration{Namespace: Namespace, Factory: instance(NewPing(info, set))}
}

func statsRegistration(stats *slash.Stats, set *checks.Set) slash.Registration {
	return slash.Registration{Namespace: Namespace, Factory: instance(NewStats(stats, set))}
}

func helpRegistration(dir *Directory, set *checks.Set) slash.Registration {
	return slash.Registration{Namespace: Namespace, Factory: instance(NewHelp(dir, set))}
}

func aboutRegistration(info *gateway.Info, set *checks.Set) slash.Registration {
	return slash.Registration{Namespace: Namespace, Factory: instance(NewAbout(info, set))}
}

func adminRegistration(mod *gateway.Moderation, set *checks.Set) slash.Registration {
	return slash.Registration{Namespace: AdminNamespace, Factory: instance(NewAdmin(mod, set))}
}

func settingsRegistration(resolver *i18n.Resolver, bundle *i18n.Bundle, set *checks.Set) slash.Registration {
	return slash.Registration{Namespace: AdminNamespace, Factory: instance(NewSettings(resolver, bundle, set))}
}

// instance wraps an already-built command as a factory.
func instance(cmd slash.Command) slash.Factory {
	return func() (slash.Command, error) { return cmd, nil }
}

func fillDirectory(dir *Directory, registry *slash.Registry, log *logger.Logger) {
	dir.Set(registry)
	log.Info("Registered slash commands",
		zap.String("namespace", registry.Namespace()),
		zap.Int("count", registry.Len()))
}
