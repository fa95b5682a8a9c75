package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles logging, tracing and metrics.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance and its logger to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown flushes and stops the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.Tracer == nil {
		return nil
	}
	return t.Tracer.Shutdown(ctx)
}

// MetricsOrNil returns the metrics collector of a possibly nil Telemetry.
func (t *Telemetry) MetricsOrNil() *Metrics {
	if t == nil {
		return nil
	}
	return t.Metrics
}

// TrackOperation runs fn inside a store span and records its outcome and
// duration. fn reports the outcome label (OutcomeOK, OutcomeNoop); an
// error always counts as OutcomeError. A nil Telemetry just runs fn.
func (t *Telemetry) TrackOperation(ctx context.Context, store, operation string, fn func(ctx context.Context) (string, error)) error {
	if t == nil {
		_, err := fn(ctx)
		return err
	}

	var span trace.Span
	if t.Tracer != nil {
		ctx, span = t.Tracer.StartStoreSpan(ctx, store, operation)
		defer span.End()
	}

	timer := NewTimer()
	outcome, err := fn(ctx)
	if err != nil {
		outcome = OutcomeError
	}
	if outcome == "" {
		outcome = OutcomeOK
	}

	t.Metrics.RecordStoreOperation(store, operation, outcome, timer.Duration())

	if span != nil {
		span.SetAttributes(AttrOutcome.String(outcome))
		if err != nil {
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
	}

	return err
}

// InstrumentedContext carries a span, logger and timer for one operation.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	spanCtx, span := tel.Tracer.Start(ctx, operation, trace.WithAttributes(attrs...))

	logger := tel.Logger.WithField("operation", operation)
	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}

	return &InstrumentedContext{
		Ctx:    logger.WithContext(spanCtx),
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span == nil {
		return
	}
	if err != nil {
		RecordError(ic.Span, err)
	} else {
		RecordSuccess(ic.Span)
	}
	ic.Span.End()
}
