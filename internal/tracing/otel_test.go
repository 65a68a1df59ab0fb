package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanSetsTraceID(t *testing.T) {
	if err := InitOpenTelemetry("smolcc-test", "test"); err != nil {
		t.Fatalf("InitOpenTelemetry failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "smolcc.test", "test.span")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Fatal("Expected a recording span after initialization")
	}
	if GetTraceID(ctx) != span.SpanContext().TraceID().String() {
		t.Error("Trace ID not propagated from span")
	}
}

func TestStartSpanKeepsExistingTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "existing")

	ctx, span := StartSpan(ctx, "smolcc.test", "test.span")
	defer span.End()

	if GetTraceID(ctx) != "existing" {
		t.Error("Existing trace ID was replaced")
	}
}

func TestStartSpanTagsIDs(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx := WithSessionID(context.Background(), "sess-1")
	ctx = WithCallID(ctx, "call-1")

	_, span := StartSpan(ctx, "smolcc.test", "tagged")
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("Expected 1 ended span, got %d", len(ended))
	}

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs[string(AttrSessionID)] != "sess-1" {
		t.Errorf("Session ID attribute = %q", attrs[string(AttrSessionID)])
	}
	if attrs[string(AttrCallID)] != "call-1" {
		t.Errorf("Call ID attribute = %q", attrs[string(AttrCallID)])
	}
	if _, ok := attrs[string(AttrTurnID)]; ok {
		t.Error("Turn ID attribute set without a turn")
	}
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("smolcc.test").Start(context.Background(), "failing")
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("Expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Status().Description != "boom" {
		t.Errorf("Unexpected status %q", ended[0].Status().Description)
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("Expected one error event, got %d", len(ended[0].Events()))
	}
}
