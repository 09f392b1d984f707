package i18n

import (
	"go.uber.org/fx"

	"interbot/pkg/config"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

// Module provides the message bundle as slash.Translator and the guild-aware
// resolver as slash.LocaleResolver.
var Module = fx.Module("i18n",
	fx.Provide(
		ProvideBundle,
		fx.Annotate(func(b *Bundle) *Bundle { return b }, fx.As(new(slash.Translator))),
		ProvideResolver,
		fx.Annotate(func(r *Resolver) *Resolver { return r }, fx.As(new(slash.LocaleResolver))),
	),
)

// ProvideBundle loads the embedded catalogs.
func ProvideBundle(cfg *config.Config) (*Bundle, error) {
	return LoadEmbedded(cfg.I18n.DefaultLocale)
}

// ProvideResolver builds the resolver over the state store.
func ProvideResolver(bundle *Bundle, kv state.KV, log *logger.Logger) *Resolver {
	return NewResolver(bundle, kv, log.Named("i18n"))
}
