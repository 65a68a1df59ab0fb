package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harun/smolcc/internal/config"
	"github.com/harun/smolcc/internal/observability"
	"github.com/harun/smolcc/internal/tracing"
	"github.com/harun/smolcc/pkg/session"
	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ControllerConfig wires the controller's collaborators
type ControllerConfig struct {
	Client       ModelClient
	Registry     *toolexecutor.Registry
	Gate         *toolexecutor.Gate
	Dispatcher   *toolexecutor.Dispatcher
	Session      *session.Session
	Settings     config.SessionConfig
	SystemPrompt string
	Logger       zerolog.Logger

	// Observer, when set, is told about each tool call and its result
	Observer Observer
}

// Observer receives progress notifications from the turn loop
type Observer interface {
	ToolCallStarted(call toolexecutor.ToolCall)
	ToolCallFinished(call toolexecutor.ToolCall, result toolexecutor.ToolResult)
}

// Outcome describes how one Submit ended
type Outcome struct {
	// Answer is the model's final text
	Answer string
	// Steps counts model calls made for this input
	Steps int
	// StepLimitReached is set when the loop stopped at the step budget
	StepLimitReached bool
}

// Controller runs the turn loop for one session. It is not safe for
// concurrent use; calls are strictly sequential.
type Controller struct {
	client     ModelClient
	registry   *toolexecutor.Registry
	gate       *toolexecutor.Gate
	dispatcher *toolexecutor.Dispatcher
	session    *session.Session
	settings   config.SessionConfig
	prompt     string
	observer   Observer
	logger     zerolog.Logger
}

// NewController validates cfg and creates a controller
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Client == nil {
		return nil, errors.New("model client is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if cfg.Gate == nil {
		return nil, errors.New("confirmation gate is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Session == nil {
		return nil, errors.New("session is required")
	}
	if cfg.Settings.MaxSteps <= 0 {
		cfg.Settings.MaxSteps = config.DefaultMaxSteps
	}

	return &Controller{
		client:     cfg.Client,
		registry:   cfg.Registry,
		gate:       cfg.Gate,
		dispatcher: cfg.Dispatcher,
		session:    cfg.Session,
		settings:   cfg.Settings,
		prompt:     cfg.SystemPrompt,
		observer:   cfg.Observer,
		logger:     cfg.Logger.With().Str("component", "controller").Logger(),
	}, nil
}

// Session returns the controller's session
func (c *Controller) Session() *session.Session {
	return c.session
}

// State returns the current loop state
func (c *Controller) State() session.State {
	return c.session.State()
}

// Exit ends the session at the user's request
func (c *Controller) Exit() {
	c.session.Terminate()
	c.logger.Info().Str("session_id", c.session.ID).Msg("Session ended")
}

// Submit appends the user's text and runs the loop until the model answers
// without a tool call, the step budget runs out, ctx is cancelled or the
// model cannot be reached. A cancelled ctx returns ctx.Err() with the
// session back in AwaitingUserInput; model failures terminate the session
// and return an error wrapping ErrModelCommunication.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	if c.session.Terminated() {
		return Outcome{}, ErrSessionTerminated
	}
	if state := c.session.State(); state != session.AwaitingUserInput {
		return Outcome{}, fmt.Errorf("cannot accept input in state %s", state)
	}

	if tracing.GetSessionID(ctx) == "" {
		ctx = tracing.WithSessionID(ctx, c.session.ID)
	}
	ctx = tracing.NewTurnContext(ctx)
	logger := tracing.LoggerFromContext(ctx, c.logger)

	ctx, span := tracing.StartSpan(ctx, "smolcc.agent", "agent.submit",
		attribute.String("session_id", c.session.ID),
		attribute.Int("input_len", len(text)),
	)
	defer span.End()

	if err := c.session.Append(session.Turn{Role: session.RoleUser, Text: text}); err != nil {
		return Outcome{}, c.abort(logger, err)
	}

	var outcome Outcome
	for {
		if outcome.Steps >= c.settings.MaxSteps {
			logger.Warn().Int("max_steps", c.settings.MaxSteps).Msg("Step limit reached")
			outcome.StepLimitReached = true
			c.setState(session.AwaitingUserInput)
			return outcome, nil
		}

		c.setState(session.AwaitingModelResponse)
		outcome.Steps++

		resp, err := c.client.Complete(ctx, c.request())
		if err != nil {
			if ctx.Err() != nil {
				c.interrupt(ctx, "model call cancelled")
				return outcome, ctx.Err()
			}
			tracing.RecordError(span, err)
			logger.Error().Err(err).Msg("Model communication failed")
			c.session.Terminate()
			if !errors.Is(err, ErrModelCommunication) {
				err = fmt.Errorf("%w: %w", ErrModelCommunication, err)
			}
			return outcome, err
		}

		switch reply := ParseReply(resp).(type) {
		case PlainAnswer:
			if err := c.session.Append(session.Turn{Role: session.RoleAssistant, Text: reply.Text}); err != nil {
				return outcome, c.abort(logger, err)
			}
			outcome.Answer = reply.Text
			c.setState(session.AwaitingUserInput)
			logger.Debug().Int("steps", outcome.Steps).Msg("Turn completed")
			return outcome, nil

		case MultipleToolCalls:
			if err := c.rejectMultiple(ctx, reply); err != nil {
				return outcome, c.abort(logger, err)
			}

		case ToolInvocation:
			call := reply.Call
			if err := c.session.Append(session.Turn{Role: session.RoleAssistant, Text: reply.Text, ToolCall: &call}); err != nil {
				return outcome, c.abort(logger, err)
			}

			result := c.runTool(ctx, call)
			if err := c.session.Append(session.Turn{Role: session.RoleTool, Result: &result}); err != nil {
				return outcome, c.abort(logger, err)
			}
			if c.observer != nil {
				c.observer.ToolCallFinished(call, result)
			}

			if result.Kind == toolexecutor.ErrorKindInterrupted || ctx.Err() != nil {
				c.interrupt(ctx, "tool call interrupted")
				return outcome, ctx.Err()
			}
		}
	}
}

func (c *Controller) request() ModelRequest {
	return ModelRequest{
		Model:        c.settings.Model,
		SystemPrompt: c.prompt,
		Turns:        c.session.Turns(),
		Tools:        c.registry.List(),
		Temperature:  c.settings.Temperature,
		MaxTokens:    c.settings.MaxTokens,
	}
}

// rejectMultiple records the first call with a rejection naming all of them
func (c *Controller) rejectMultiple(ctx context.Context, reply MultipleToolCalls) error {
	first := reply.Calls[0]
	names := reply.Names()

	if err := c.session.Append(session.Turn{Role: session.RoleAssistant, Text: reply.Text, ToolCall: &first}); err != nil {
		return err
	}

	result := toolexecutor.ErrorResult(first.ID, toolexecutor.ErrorKindMultipleToolCallsRejected,
		"%d tool calls were requested in one turn (%s); none were executed. Request exactly one tool call per turn.",
		len(reply.Calls), strings.Join(names, ", "))
	if err := c.session.Append(session.Turn{Role: session.RoleTool, Result: &result}); err != nil {
		return err
	}

	for _, call := range reply.Calls {
		observability.RecordToolRejection(call.Name, string(toolexecutor.ErrorKindMultipleToolCallsRejected))
	}
	c.session.Record(session.Event{
		Type:   session.EventToolRejected,
		CallID: first.ID,
		Tool:   strings.Join(names, ","),
		Detail: string(toolexecutor.ErrorKindMultipleToolCallsRejected),
	})
	logger := tracing.LoggerFromContext(ctx, c.logger)
	logger.Warn().
		Strs("tools", names).
		Msg("Rejected multiple tool calls in one turn")

	if c.observer != nil {
		c.observer.ToolCallStarted(first)
		c.observer.ToolCallFinished(first, result)
	}
	return nil
}

// runTool takes one call through lookup, validation, confirmation and
// execution. It always returns a result for call.ID.
func (c *Controller) runTool(ctx context.Context, call toolexecutor.ToolCall) toolexecutor.ToolResult {
	ctx = tracing.WithCallID(ctx, call.ID)
	logger := tracing.LoggerFromContext(ctx, c.logger).With().Str("tool", call.Name).Logger()

	if c.observer != nil {
		c.observer.ToolCallStarted(call)
	}

	spec, err := c.registry.Lookup(call.Name)
	if err != nil {
		names := make([]string, 0, c.registry.Count())
		for _, s := range c.registry.List() {
			names = append(names, s.Name)
		}
		return c.reject(ctx, call, toolexecutor.ErrorResult(call.ID, toolexecutor.ErrorKindToolNotFound,
			"unknown tool %q. Available tools: %s", call.Name, strings.Join(names, ", ")))
	}

	if err := c.registry.Validate(spec.Name, call.Arguments); err != nil {
		return c.reject(ctx, call, toolexecutor.ErrorResult(call.ID, toolexecutor.ErrorKindSchemaValidation, "%v", err))
	}

	if c.gate.Classify(spec) == toolexecutor.Destructive {
		c.setState(session.AwaitingToolApproval)
		c.session.Record(session.Event{Type: session.EventApprovalRequested, CallID: call.ID, Tool: spec.Name})

		response := c.gate.RequestApproval(ctx, call, spec)
		if ctx.Err() != nil {
			return toolexecutor.ErrorResult(call.ID, toolexecutor.ErrorKindInterrupted,
				"%s was interrupted by the user before it was confirmed", call.Name)
		}

		observability.RecordApproval(spec.Name, response.Approved)
		observability.RecordApprovalAudit(ctx, spec.Name, "user", response.Approved, map[string]interface{}{
			"reason": response.Reason,
		})

		if !response.Approved {
			c.session.Record(session.Event{Type: session.EventApprovalDenied, CallID: call.ID, Tool: spec.Name, Detail: response.Reason})
			logger.Info().Str("reason", response.Reason).Msg("Tool call denied")
			reason := "the user denied permission to run this tool"
			if response.Reason != "" {
				reason += ": " + response.Reason
			}
			return c.reject(ctx, call, toolexecutor.ErrorResult(call.ID, toolexecutor.ErrorKindConfirmationDenied, "%s", reason))
		}
		c.session.Record(session.Event{Type: session.EventApprovalGranted, CallID: call.ID, Tool: spec.Name})
	}

	c.setState(session.AwaitingToolExecution)
	c.session.Record(session.Event{Type: session.EventToolStarted, CallID: call.ID, Tool: spec.Name})

	result := c.dispatcher.Execute(ctx, call, spec)

	c.session.Record(session.Event{Type: session.EventToolFinished, CallID: call.ID, Tool: spec.Name, Detail: string(result.Kind)})
	status := "success"
	if result.IsError {
		status = string(result.Kind)
	}
	observability.RecordToolAudit(tracing.CloneContext(ctx), spec.Name, "model", status, map[string]interface{}{
		"destructive": spec.Destructive,
	})

	return result
}

// reject records a call refused before execution
func (c *Controller) reject(ctx context.Context, call toolexecutor.ToolCall, result toolexecutor.ToolResult) toolexecutor.ToolResult {
	observability.RecordToolRejection(call.Name, string(result.Kind))
	c.session.Record(session.Event{Type: session.EventToolRejected, CallID: call.ID, Tool: call.Name, Detail: string(result.Kind)})
	logger := tracing.LoggerFromContext(ctx, c.logger)
	logger.Warn().
		Str("tool", call.Name).
		Str("kind", string(result.Kind)).
		Msg("Tool call rejected")
	return result
}

// interrupt abandons the in-flight turn. A call still waiting for its result
// is answered with an Interrupted result.
func (c *Controller) interrupt(ctx context.Context, detail string) {
	if call, pending := c.session.PendingCall(); pending {
		result := toolexecutor.ErrorResult(call.ID, toolexecutor.ErrorKindInterrupted, "%s was interrupted by the user", call.Name)
		if err := c.session.Append(session.Turn{Role: session.RoleTool, Result: &result}); err != nil {
			c.logger.Error().Err(err).Msg("Failed to record interrupted tool call")
		}
	}

	c.session.Record(session.Event{Type: session.EventInterrupted, Detail: detail})
	c.setState(session.AwaitingUserInput)
	logger := tracing.LoggerFromContext(ctx, c.logger)
	logger.Info().Str("detail", detail).Msg("Turn interrupted")
}

// abort ends the session after the history refused a turn. The loop cannot
// continue without breaking call/result pairing.
func (c *Controller) abort(logger zerolog.Logger, err error) error {
	logger.Error().Err(err).Msg("Conversation history rejected a turn")
	c.session.Terminate()
	return fmt.Errorf("%w: %w", ErrSessionTerminated, err)
}

func (c *Controller) setState(next session.State) {
	if err := c.session.SetState(next); err != nil {
		c.logger.Error().Err(err).Msg("Invalid state transition")
	}
}
