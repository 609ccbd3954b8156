package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/pkg/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLogger wraps a named zap logger and produces operation tracers.
//
// Typical usage:
//
//	tracer := logger.WithContext(ctx).Operation("build_waves").
//		WithString("project_id", id).
//		Build()
//	tracer.Step("cycle_check").WithInt("vm_count", n).Log()
//	tracer.Success().WithInt("wave_count", len(waves)).Log()
type StructuredLogger struct {
	logger *zap.Logger
	fields []zap.Field
}

// NewDebugLogger returns a StructuredLogger named after the component. Steps are
// logged at debug level, successes at info and errors at error level.
func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{logger: zap.L().Named(name)}
}

// WithContext attaches the request id carried by ctx, if any.
func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	fields := append([]zap.Field{}, l.fields...)
	if id := requestid.FromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return &StructuredLogger{logger: l.logger, fields: fields}
}

// Operation starts building a tracer for the named operation.
func (l *StructuredLogger) Operation(name string) *OperationBuilder {
	return &OperationBuilder{
		logger:    l.logger,
		operation: name,
		fields:    append([]zap.Field{}, l.fields...),
	}
}

type OperationBuilder struct {
	logger    *zap.Logger
	operation string
	fields    []zap.Field
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithFloat(key string, value float64) *OperationBuilder {
	b.fields = append(b.fields, zap.Float64(key, value))
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

// Build freezes the operation fields and starts the clock.
func (b *OperationBuilder) Build() *OperationTracer {
	fields := append([]zap.Field{zap.String("operation", b.operation)}, b.fields...)
	return &OperationTracer{
		logger: b.logger,
		fields: fields,
		start:  time.Now(),
	}
}

// OperationTracer emits correlated log events for one operation.
type OperationTracer struct {
	logger *zap.Logger
	fields []zap.Field
	start  time.Time
}

func (t *OperationTracer) Step(name string) *LogEvent {
	return t.event(zapcore.DebugLevel, "operation step", zap.String("step", name))
}

func (t *OperationTracer) Success() *LogEvent {
	return t.event(zapcore.InfoLevel, "operation succeeded", zap.Duration("elapsed", time.Since(t.start)))
}

func (t *OperationTracer) Error(err error) *LogEvent {
	return t.event(zapcore.ErrorLevel, "operation failed", zap.Error(err), zap.Duration("elapsed", time.Since(t.start)))
}

func (t *OperationTracer) event(level zapcore.Level, msg string, extra ...zap.Field) *LogEvent {
	fields := make([]zap.Field, 0, len(t.fields)+len(extra))
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	return &LogEvent{logger: t.logger, level: level, msg: msg, fields: fields}
}

// LogEvent is a single pending log line; nothing is written until Log is called.
type LogEvent struct {
	logger *zap.Logger
	level  zapcore.Level
	msg    string
	fields []zap.Field
}

func (e *LogEvent) WithString(key, value string) *LogEvent {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *LogEvent) WithInt(key string, value int) *LogEvent {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *LogEvent) WithFloat(key string, value float64) *LogEvent {
	e.fields = append(e.fields, zap.Float64(key, value))
	return e
}

func (e *LogEvent) WithBool(key string, value bool) *LogEvent {
	e.fields = append(e.fields, zap.Bool(key, value))
	return e
}

func (e *LogEvent) WithUUID(key string, value uuid.UUID) *LogEvent {
	e.fields = append(e.fields, zap.String(key, value.String()))
	return e
}

func (e *LogEvent) Log() {
	if ce := e.logger.Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields...)
	}
}
