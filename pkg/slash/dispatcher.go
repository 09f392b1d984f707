package slash

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// FailureMeta describes where a captured failure happened.
type FailureMeta struct {
	DispatchID string
	Command    string
	SubCommand string
	Group      string
	ActorID    string
	GuildID    string
	ChannelID  string
	Locale     string
	Panicked   bool
	Stack      []byte
	At         time.Time
}

// Reporter receives captured handler failures. Report must not block.
type Reporter interface {
	Report(ctx context.Context, err error, meta FailureMeta)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, error, FailureMeta) {}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReporter sets the failure reporter.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.reporter = r
		}
	}
}

// WithGate sets the permission gate.
func WithGate(g *Gate) Option {
	return func(d *Dispatcher) {
		if g != nil {
			d.gate = g
		}
	}
}

// WithTranslator sets the localization provider.
func WithTranslator(t Translator) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.translator = t
		}
	}
}

// WithLocaleResolver sets how the reply locale is chosen.
func WithLocaleResolver(l LocaleResolver) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.locales = l
		}
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithStats sets the outcome counters.
func WithStats(s *Stats) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.stats = s
		}
	}
}

// WithTimeout bounds each dispatch. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// Dispatcher routes events to commands.
type Dispatcher struct {
	registry   *Registry
	gate       *Gate
	reporter   Reporter
	translator Translator
	locales    LocaleResolver
	tracer     trace.Tracer
	stats      *Stats
	timeout    time.Duration
	log        *logger.Logger
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:   registry,
		reporter:   nopReporter{},
		translator: keyTranslator{},
		locales:    eventLocale{},
		tracer:     otel.Tracer("interbot/slash"),
		stats:      NewStats(),
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.gate == nil {
		d.gate = NewGate(nil, d.log)
	}
	return d
}

// Registry returns the registry the dispatcher routes over.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Stats returns the outcome counters.
func (d *Dispatcher) Stats() *Stats {
	return d.stats
}

// Dispatch handles one event to completion. It never panics and never
// returns a handler failure; the result says how the dispatch ended.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) Outcome {
	e, ok := d.registry.lookupEntry(ev.Command)
	if !ok {
		d.log.Debug("Unknown command", zap.String("command", ev.Command))
		d.stats.Record(ev.Command, OutcomeMissed)
		return OutcomeMissed
	}

	id := uuid.NewString()
	ctx, span := d.tracer.Start(ctx, "slash.dispatch "+ev.Command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("slash.dispatch_id", id),
			attribute.String("slash.command", ev.Command),
			attribute.String("slash.group", ev.Group),
			attribute.String("slash.subcommand", ev.SubCommand),
			attribute.String("discord.guild_id", ev.GuildID),
			attribute.String("discord.channel_id", ev.ChannelID),
			attribute.String("discord.user_id", ev.ActorID),
		),
	)
	defer span.End()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	c := NewContext(ctx, ev, d.locales.ResolveLocale(ctx, ev), d.translator)
	c.dispatchID = id

	start := time.Now()
	outcome := d.execute(c, e)
	d.stats.Record(ev.Command, outcome)

	span.SetAttributes(attribute.String("slash.outcome", outcome.String()))
	if outcome == OutcomeFailed {
		span.SetStatus(codes.Error, "handler failed")
	}

	d.log.Debug("Dispatch finished",
		zap.String("dispatch_id", id),
		zap.String("command", ev.Command),
		zap.String("group", ev.Group),
		zap.String("subcommand", ev.SubCommand),
		zap.String("outcome", outcome.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcome
}

func (d *Dispatcher) execute(c *Context, e *entry) Outcome {
	ev := c.Event()

	for i, check := range e.checks {
		passed, err := d.check(c, check)
		if err != nil {
			d.fail(c, "", err)
			return OutcomeFailed
		}
		if !passed {
			d.log.Debug("Check halted dispatch",
				zap.String("dispatch_id", c.dispatchID),
				zap.String("command", ev.Command),
				zap.Int("check", i),
			)
			return OutcomeHalted
		}
	}

	if e.table.Len() > 0 && ev.SubCommand != "" {
		if sc, found := e.table.Resolve(ev.Group, ev.SubCommand); found {
			if d.gate.Evaluate(c, sc.Permissions) == Denied {
				return OutcomeDenied
			}
			return d.run(c, sc.Name, sc.Handler)
		}
	}

	if e.handler == nil {
		if err := c.ReplyEphemeral(c.T("command.not_implemented")); err != nil {
			d.log.Warn("Failed to send not-implemented reply",
				zap.String("command", ev.Command),
				zap.Error(err),
			)
		}
		return OutcomeCompleted
	}
	return d.run(c, "", e.handler)
}

func (d *Dispatcher) run(c *Context, subcommand string, fn HandlerFunc) Outcome {
	if err := invoke(c, fn); err != nil {
		d.fail(c, subcommand, err)
		return OutcomeFailed
	}
	return OutcomeCompleted
}

// invoke is the failure boundary around user code.
func invoke(c *Context, fn HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn(c)
}

func (d *Dispatcher) check(c *Context, check Check) (passed bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			passed = false
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return check(c), nil
}

func (d *Dispatcher) fail(c *Context, subcommand string, err error) {
	ev := c.Event()
	meta := FailureMeta{
		DispatchID: c.dispatchID,
		Command:    ev.Command,
		SubCommand: subcommand,
		Group:      ev.Group,
		ActorID:    ev.ActorID,
		GuildID:    ev.GuildID,
		ChannelID:  ev.ChannelID,
		Locale:     c.Locale(),
		At:         time.Now(),
	}
	if pe, ok := err.(*PanicError); ok {
		meta.Panicked = true
		meta.Stack = pe.Stack
	}

	d.log.Debug("Capturing handler failure",
		zap.String("dispatch_id", meta.DispatchID),
		zap.String("command", meta.Command),
		zap.String("group", meta.Group),
		zap.String("subcommand", meta.SubCommand),
		zap.String("actor", meta.ActorID),
		zap.String("guild", meta.GuildID),
		zap.Bool("panic", meta.Panicked),
		zap.Error(err),
	)

	// The dispatch context may already be past its deadline.
	d.reporter.Report(context.WithoutCancel(c.Context()), err, meta)
}
