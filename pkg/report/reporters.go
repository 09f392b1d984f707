package report

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"interbot/pkg/bus"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
)

// LogReporter writes failures to the log.
type LogReporter struct {
	log *logger.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(log *logger.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report implements slash.Reporter.
func (r *LogReporter) Report(_ context.Context, err error, meta slash.FailureMeta) {
	fields := []zap.Field{
		zap.String("dispatch_id", meta.DispatchID),
		zap.String("command", meta.Command),
		zap.String("group", meta.Group),
		zap.String("subcommand", meta.SubCommand),
		zap.String("actor", meta.ActorID),
		zap.String("guild", meta.GuildID),
		zap.String("channel", meta.ChannelID),
		zap.Bool("panic", meta.Panicked),
		zap.Error(err),
	}
	if meta.Panicked {
		fields = append(fields, zap.ByteString("handler_stack", meta.Stack))
	}
	r.log.Error("Command failed", fields...)
}

// BusReporter publishes failures on bus.TopicFailure.
type BusReporter struct {
	bus    bus.Bus
	source string
	log    *logger.Logger
}

// NewBusReporter creates a BusReporter.
func NewBusReporter(b bus.Bus, source string, log *logger.Logger) *BusReporter {
	return &BusReporter{bus: b, source: source, log: log}
}

// Report implements slash.Reporter.
func (r *BusReporter) Report(ctx context.Context, err error, meta slash.FailureMeta) {
	msg, mErr := bus.NewMessage(bus.TopicFailure, r.source, NewFailure(err, meta))
	if mErr != nil {
		r.log.Warn("Failed to encode failure report", zap.Error(mErr))
		return
	}
	if pErr := r.bus.Publish(ctx, msg); pErr != nil {
		r.log.Warn("Failed to publish failure report",
			zap.String("dispatch_id", meta.DispatchID),
			zap.Error(pErr),
		)
	}
}

// TraceReporter records failures on the dispatch span found in ctx. It must
// run synchronously, before the span ends.
type TraceReporter struct{}

// Report implements slash.Reporter.
func (TraceReporter) Report(ctx context.Context, err error, meta slash.FailureMeta) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, trace.WithAttributes(
		attribute.String("slash.subcommand", meta.SubCommand),
		attribute.Bool("slash.panic", meta.Panicked),
	))
}

// Multi fans a report out to every reporter in order.
type Multi []slash.Reporter

// Report implements slash.Reporter.
func (m Multi) Report(ctx context.Context, err error, meta slash.FailureMeta) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, err, meta)
		}
	}
}

// Func adapts a function to slash.Reporter.
type Func func(ctx context.Context, err error, meta slash.FailureMeta)

// Report implements slash.Reporter.
func (f Func) Report(ctx context.Context, err error, meta slash.FailureMeta) {
	f(ctx, err, meta)
}
