package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harun/smolcc/internal/observability"
	"github.com/harun/smolcc/internal/tracing"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultTimeout    = 120 * time.Second
	DefaultMaxTimeout = 600 * time.Second
	DefaultMaxOutput  = 30000
	DefaultKillGrace  = 5 * time.Second
)

// DispatcherConfig configures tool execution limits
type DispatcherConfig struct {
	Timeout    time.Duration
	MaxTimeout time.Duration
	MaxOutput  int
	// KillGrace bounds how long Execute waits for a cancelled capability to
	// exit so its processes are reaped before the result is returned.
	KillGrace  time.Duration
	SessionID  string
	WorkingDir string
}

// Dispatcher runs bound capabilities with a bounded wall-clock timeout. It
// always returns exactly one ToolResult and never panics.
type Dispatcher struct {
	cfg DispatcherConfig
}

type outcome struct {
	output string
	err    error
}

// NewDispatcher creates a dispatcher, filling unset limits with defaults
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTimeout <= 0 {
		cfg.MaxTimeout = DefaultMaxTimeout
	}
	if cfg.MaxTimeout < cfg.Timeout {
		cfg.MaxTimeout = cfg.Timeout
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	return &Dispatcher{cfg: cfg}
}

// Execute runs call against spec's capability
func (d *Dispatcher) Execute(ctx context.Context, call ToolCall, spec ToolSpec) ToolResult {
	startTime := time.Now()
	timeout := d.timeoutFor(call, spec)

	ctx, span := tracing.StartSpan(
		ctx,
		"smolcc.toolexecutor",
		"tool.execute",
		attribute.String("tool", spec.Name),
		attribute.String("call_id", call.ID),
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runCtx = ContextWithExecContext(runCtx, &ExecutionContext{
		SessionID:  d.cfg.SessionID,
		CallID:     call.ID,
		Tool:       spec.Name,
		WorkingDir: d.cfg.WorkingDir,
	})

	log.Debug().
		Str("tool", spec.Name).
		Str("call_id", call.ID).
		Dur("timeout", timeout).
		Msg("Executing tool")

	// Buffered so a capability finishing after we gave up never blocks
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("capability panicked: %v", r)}
			}
		}()
		output, err := spec.Handler(runCtx, call.Arguments)
		done <- outcome{output: output, err: err}
	}()

	var result ToolResult
	select {
	case res := <-done:
		result = d.resultFor(ctx, runCtx, call, timeout, res)

	case <-runCtx.Done():
		cancel()
		select {
		case <-done:
		case <-time.After(d.cfg.KillGrace):
			log.Warn().
				Str("tool", spec.Name).
				Str("call_id", call.ID).
				Msg("Capability did not exit after cancellation")
		}
		result = d.cancelledResult(ctx, call, timeout)
	}

	duration := time.Since(startTime)
	observability.RecordToolExecution(spec.Name, duration, string(result.Kind))

	if result.IsError {
		span.SetStatus(codes.Error, string(result.Kind))
		log.Warn().
			Str("tool", spec.Name).
			Str("call_id", call.ID).
			Str("kind", string(result.Kind)).
			Dur("duration", duration).
			Msg("Tool execution failed")
	} else {
		log.Debug().
			Str("tool", spec.Name).
			Str("call_id", call.ID).
			Dur("duration", duration).
			Int("output_len", len(result.Output)).
			Msg("Tool execution completed")
	}

	return result
}

func (d *Dispatcher) resultFor(parent, runCtx context.Context, call ToolCall, timeout time.Duration, res outcome) ToolResult {
	if res.err == nil {
		return SuccessResult(call.ID, TruncateMiddle(res.output, d.cfg.MaxOutput))
	}

	// A capability that noticed cancellation itself still reports as such
	if runCtx.Err() != nil {
		return d.cancelledResult(parent, call, timeout)
	}

	msg := res.err.Error()
	if res.output != "" {
		msg += "\n" + res.output
	}
	return ErrorResult(call.ID, ErrorKindExecutionError, "%s", TruncateMiddle(msg, d.cfg.MaxOutput))
}

func (d *Dispatcher) cancelledResult(parent context.Context, call ToolCall, timeout time.Duration) ToolResult {
	if parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded) {
		return ErrorResult(call.ID, ErrorKindInterrupted, "%s was interrupted by the user", call.Name)
	}
	return ErrorResult(call.ID, ErrorKindExecutionTimeout, "%s timed out after %v and was terminated", call.Name, timeout)
}

// timeoutFor applies a per-call override, clamped to the configured maximum
func (d *Dispatcher) timeoutFor(call ToolCall, spec ToolSpec) time.Duration {
	if spec.TimeoutArg == "" {
		return d.cfg.Timeout
	}

	raw, ok := call.Arguments[spec.TimeoutArg]
	if !ok || raw == nil {
		return d.cfg.Timeout
	}

	var ms float64
	switch v := raw.(type) {
	case float64:
		ms = v
	case int:
		ms = float64(v)
	case int64:
		ms = float64(v)
	default:
		return d.cfg.Timeout
	}
	if ms <= 0 || math.IsNaN(ms) {
		return d.cfg.Timeout
	}

	// Clamp before converting so huge values cannot overflow
	if limit := float64(d.cfg.MaxTimeout.Milliseconds()); ms > limit {
		ms = limit
	}
	timeout := time.Duration(ms * float64(time.Millisecond))
	if timeout <= 0 {
		return d.cfg.Timeout
	}
	return timeout
}

// TruncateMiddle keeps the head and tail of s when it exceeds limit characters
func TruncateMiddle(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}

	half := limit / 2
	omitted := strings.Count(string(runes[half:len(runes)-half]), "\n")
	return fmt.Sprintf("%s\n\n... [%d lines truncated] ...\n\n%s",
		string(runes[:half]), omitted, string(runes[len(runes)-half:]))
}
