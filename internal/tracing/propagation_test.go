package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestPropagateToLogger(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithTurnID(ctx, "turn-456")
	ctx = WithSessionID(ctx, "session-abc")
	ctx = WithCallID(ctx, "call-789")

	var buf bytes.Buffer
	logger := PropagateToLogger(ctx, zerolog.New(&buf))
	logger.Info().Msg("test message")

	output := buf.String()
	for _, want := range []string{"trace-123", "turn-456", "session-abc", "call-789"} {
		if !strings.Contains(output, want) {
			t.Errorf("%s not in log output", want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-xyz")

	var buf bytes.Buffer
	logger := LoggerFromContext(ctx, zerolog.New(&buf))
	logger.Info().Msg("test")

	output := buf.String()
	if !strings.Contains(output, "trace-xyz") {
		t.Error("Trace ID not in log output")
	}
	if strings.Contains(output, "turn_id") {
		t.Error("Empty turn ID should not be logged")
	}
}

func TestCloneContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	parent = WithTraceID(parent, "trace-clone")
	parent = WithCallID(parent, "call-clone")
	cancel()

	cloned := CloneContext(parent)

	if cloned.Err() != nil {
		t.Error("Cloned context should not inherit cancellation")
	}
	if GetTraceID(cloned) != "trace-clone" || GetCallID(cloned) != "call-clone" {
		t.Error("Tracing values not cloned")
	}
}

func TestPropagateToLoggerWithoutIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := PropagateToLogger(context.Background(), zerolog.New(&buf))
	logger.Info().Msg("bare")

	if strings.Contains(buf.String(), "_id") {
		t.Errorf("Unexpected ID fields in %s", buf.String())
	}
}
