package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Classification is the gate's verdict on whether a tool needs confirmation
type Classification int

const (
	Safe Classification = iota
	Destructive
)

func (c Classification) String() string {
	if c == Destructive {
		return "destructive"
	}
	return "safe"
}

// ApprovalRequest represents a request to run one destructive tool call
type ApprovalRequest struct {
	CallID    string                 `json:"call_id"`
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	Cwd       string                 `json:"cwd"`
	Timeout   time.Duration          `json:"timeout"`
}

// ApprovalResponse represents the response to an approval request
type ApprovalResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// ApprovalHandler asks a human about a single call
type ApprovalHandler interface {
	RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error)
}

// Gate decides which calls need confirmation and obtains it. Approval is
// scoped to one call; nothing is remembered between requests.
type Gate struct {
	handler ApprovalHandler
	cwd     string
	timeout time.Duration
}

// NewGate creates a confirmation gate. A zero timeout waits for the user
// indefinitely.
func NewGate(handler ApprovalHandler, cwd string, timeout time.Duration) *Gate {
	return &Gate{
		handler: handler,
		cwd:     cwd,
		timeout: timeout,
	}
}

// Classify reports whether spec requires confirmation
func (g *Gate) Classify(spec ToolSpec) Classification {
	if spec.Destructive {
		return Destructive
	}
	return Safe
}

// RequestApproval blocks until the user answers for call. Handler failures,
// timeouts and cancellation all count as denial.
func (g *Gate) RequestApproval(ctx context.Context, call ToolCall, spec ToolSpec) ApprovalResponse {
	if g.handler == nil {
		return ApprovalResponse{Approved: false, Reason: ErrNoApprovalHandler.Error()}
	}

	req := ApprovalRequest{
		CallID:    call.ID,
		Tool:      spec.Name,
		Arguments: call.Arguments,
		Cwd:       g.cwd,
		Timeout:   g.timeout,
	}

	reqCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	log.Info().
		Str("tool", spec.Name).
		Str("call_id", call.ID).
		Msg("Requesting approval")

	responseChan := make(chan ApprovalResponse, 1)
	errorChan := make(chan error, 1)

	go func() {
		response, err := g.handler.RequestApproval(reqCtx, req)
		if err != nil {
			errorChan <- err
		} else {
			responseChan <- response
		}
	}()

	select {
	case response := <-responseChan:
		if response.Approved {
			log.Info().
				Str("tool", spec.Name).
				Str("call_id", call.ID).
				Str("reason", response.Reason).
				Msg("Approval granted")
		} else {
			log.Warn().
				Str("tool", spec.Name).
				Str("call_id", call.ID).
				Str("reason", response.Reason).
				Msg("Approval denied")
		}
		return response

	case err := <-errorChan:
		log.Error().
			Err(err).
			Str("tool", spec.Name).
			Msg("Approval request failed")
		return ApprovalResponse{Approved: false, Reason: fmt.Sprintf("approval request failed: %v", err)}

	case <-reqCtx.Done():
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			log.Warn().
				Str("tool", spec.Name).
				Dur("timeout", g.timeout).
				Msg("Approval request timed out")
			return ApprovalResponse{Approved: false, Reason: fmt.Sprintf("approval request timed out after %v", g.timeout)}
		}
		return ApprovalResponse{Approved: false, Reason: "approval request cancelled"}
	}
}

// MockApprovalHandler is a scripted handler for tests
type MockApprovalHandler struct {
	Responses []ApprovalResponse
	Delay     time.Duration
	Error     error
	Requests  []ApprovalRequest
}

// RequestApproval implements ApprovalHandler. Responses are consumed in
// order; once exhausted every request is denied.
func (m *MockApprovalHandler) RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error) {
	m.Requests = append(m.Requests, req)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ApprovalResponse{}, ctx.Err()
		}
	}

	if m.Error != nil {
		return ApprovalResponse{}, m.Error
	}

	if len(m.Responses) == 0 {
		return ApprovalResponse{Approved: false, Reason: "no scripted response"}, nil
	}

	response := m.Responses[0]
	m.Responses = m.Responses[1:]
	return response, nil
}
