package tracing

import (
	"context"
	"testing"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if id1 == "" {
		t.Error("NewTraceID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTraceID returned duplicate IDs")
	}
}

func TestNewTurnID(t *testing.T) {
	id1 := NewTurnID()
	id2 := NewTurnID()

	if id1 == "" {
		t.Error("NewTurnID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTurnID returned duplicate IDs")
	}
}

func TestWithValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithTurnID(ctx, "turn-1")
	ctx = WithSessionID(ctx, "session-1")
	ctx = WithCallID(ctx, "call-1")

	if got := GetTraceID(ctx); got != "trace-1" {
		t.Errorf("Expected trace ID trace-1, got %s", got)
	}
	if got := GetTurnID(ctx); got != "turn-1" {
		t.Errorf("Expected turn ID turn-1, got %s", got)
	}
	if got := GetSessionID(ctx); got != "session-1" {
		t.Errorf("Expected session ID session-1, got %s", got)
	}
	if got := GetCallID(ctx); got != "call-1" {
		t.Errorf("Expected call ID call-1, got %s", got)
	}
}

func TestGettersEmpty(t *testing.T) {
	ctx := context.Background()

	if GetTraceID(ctx) != "" || GetTurnID(ctx) != "" || GetSessionID(ctx) != "" || GetCallID(ctx) != "" {
		t.Error("Expected empty values from a bare context")
	}
}

func TestFromContextRoundTrip(t *testing.T) {
	tc := &TraceContext{
		TraceID:   "trace-abc",
		TurnID:    "turn-abc",
		SessionID: "session-abc",
	}

	ctx := NewContext(context.Background(), tc)
	got := FromContext(ctx)

	if *got != *tc {
		t.Errorf("Expected %+v, got %+v", tc, got)
	}
}

func TestNewSessionContext(t *testing.T) {
	ctx := NewSessionContext(context.Background(), "session-xyz")

	if GetTraceID(ctx) == "" {
		t.Error("Trace ID not generated")
	}
	if GetSessionID(ctx) != "session-xyz" {
		t.Error("Session ID not set")
	}
}

func TestNewTurnContext(t *testing.T) {
	sessionCtx := NewSessionContext(context.Background(), "session-xyz")

	first := NewTurnContext(sessionCtx)
	second := NewTurnContext(sessionCtx)

	if GetTraceID(first) != GetTraceID(sessionCtx) {
		t.Error("Turn context should keep the session trace ID")
	}
	if GetTurnID(first) == "" || GetTurnID(first) == GetTurnID(second) {
		t.Error("Each turn should get a distinct turn ID")
	}
	if GetSessionID(second) != "session-xyz" {
		t.Error("Session ID not propagated")
	}

	bare := NewTurnContext(context.Background())
	if GetTraceID(bare) == "" {
		t.Error("Turn context without a trace should start one")
	}
}
