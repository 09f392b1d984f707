package slash

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// GroupTag collects Registration values provided by command modules.
const GroupTag = `group:"slash.commands"`

// Module provides the catalog, registry, gate and dispatcher.
var Module = fx.Module("slash",
	fx.Provide(
		fx.Annotate(ProvideCatalog, fx.ParamTags(GroupTag)),
		fx.Annotate(func(c *Catalog) *Catalog { return c }, fx.As(new(Scanner))),
		ProvideRegistry,
		NewStats,
		ProvideGate,
		ProvideDispatcher,
	),
)

// AsRegistration annotates a constructor returning Registration so its value
// joins the command group.
func AsRegistration(constructor any) any {
	return fx.Annotate(constructor, fx.ResultTags(GroupTag))
}

// ProvideCatalog collects every registration in the graph.
func ProvideCatalog(regs []Registration) *Catalog {
	return NewCatalog(regs...)
}

// ProvideRegistry builds the registry from the configured namespace.
func ProvideRegistry(scanner Scanner, cfg *config.Config, log *logger.Logger) (*Registry, error) {
	return BuildRegistry(scanner, cfg.Dispatcher.Namespace, log.Named("slash"))
}

// ProvideGate builds the permission gate.
func ProvideGate(provider CapabilityProvider, log *logger.Logger) *Gate {
	return NewGate(provider, log.Named("gate"))
}

// DispatcherParams are the dependencies of the dispatcher.
type DispatcherParams struct {
	fx.In

	Registry   *Registry
	Gate       *Gate
	Stats      *Stats
	Reporter   Reporter
	Translator Translator
	Locales    LocaleResolver
	Tracer     trace.Tracer `optional:"true"`
	Config     *config.Config
	Logger     *logger.Logger
}

// ProvideDispatcher wires the dispatcher.
func ProvideDispatcher(p DispatcherParams) *Dispatcher {
	return NewDispatcher(p.Registry,
		WithGate(p.Gate),
		WithStats(p.Stats),
		WithReporter(p.Reporter),
		WithTranslator(p.Translator),
		WithLocaleResolver(p.Locales),
		WithTracer(p.Tracer),
		WithTimeout(p.Config.HandlerTimeout()),
		WithLogger(p.Logger.Named("dispatch")),
	)
}
