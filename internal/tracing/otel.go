package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys shared by every smolcc span
const (
	AttrSessionID = attribute.Key("smolcc.session_id")
	AttrTurnID    = attribute.Key("smolcc.turn_id")
	AttrCallID    = attribute.Key("smolcc.call_id")
)

// tracerState owns the in-process tracer provider. Spans are never
// exported; they exist to give logs and audit records a trace ID.
type tracerState struct {
	once     sync.Once
	mu       sync.RWMutex
	provider *sdktrace.TracerProvider
	err      error
}

var state tracerState

// InitOpenTelemetry installs the global tracer provider. Later calls are no-ops.
func InitOpenTelemetry(serviceName, serviceVersion string) error {
	state.once.Do(func() {
		res, err := resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(serviceVersion),
			),
			resource.WithProcessPID(),
		)
		if err != nil {
			state.err = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithResource(res),
		)

		state.mu.Lock()
		state.provider = tp
		state.mu.Unlock()

		otel.SetTracerProvider(tp)
	})

	return state.err
}

// ShutdownOpenTelemetry flushes and stops the provider, if one was installed
func ShutdownOpenTelemetry(ctx context.Context) error {
	state.mu.RLock()
	tp := state.provider
	state.mu.RUnlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartSpan starts a span tagged with the session, turn and call IDs found in
// ctx. The span's trace ID becomes ctx's trace ID unless one is already set.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	tc := FromContext(ctx)
	if tc.SessionID != "" {
		attrs = append(attrs, AttrSessionID.String(tc.SessionID))
	}
	if tc.TurnID != "" {
		attrs = append(attrs, AttrTurnID.String(tc.TurnID))
	}
	if tc.CallID != "" {
		attrs = append(attrs, AttrCallID.String(tc.CallID))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))

	if tc.TraceID == "" {
		if sc := span.SpanContext(); sc.IsValid() {
			ctx = WithTraceID(ctx, sc.TraceID().String())
		}
	}

	return ctx, span
}

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
