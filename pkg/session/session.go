package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/harun/smolcc/internal/observability"
	"github.com/harun/smolcc/pkg/toolexecutor"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
)

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry in the conversation. It is immutable once appended.
type Turn struct {
	Role      Role                     `json:"role"`
	Text      string                   `json:"text,omitempty"`
	ToolCall  *toolexecutor.ToolCall   `json:"tool_call,omitempty"`
	Result    *toolexecutor.ToolResult `json:"result,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

// Session is the state of one conversation
type Session struct {
	ID         string
	WorkingDir string
	MemoryPath string

	memory     string
	turns      []Turn
	events     []Event
	state      State
	terminated bool
	mu         sync.RWMutex
}

// New creates a session rooted at workingDir with the memory note content
// read at startup.
func New(workingDir, memoryPath, memory string) (*Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	s := &Session{
		ID:         id,
		WorkingDir: workingDir,
		MemoryPath: memoryPath,
		memory:     memory,
		state:      AwaitingUserInput,
	}

	log.Debug().
		Str("session_id", id).
		Str("working_dir", workingDir).
		Int("memory_bytes", len(memory)).
		Msg("Session created")

	return s, nil
}

// Memory returns the memory note as loaded at session start
func (s *Session) Memory() string {
	return s.memory
}

// Append adds a turn to the end of the conversation
func (s *Session) Append(turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return ErrTerminated
	}
	if err := s.checkTurn(turn); err != nil {
		return err
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	// Copy pointed-to values so later mutation by the caller cannot alter history
	if turn.ToolCall != nil {
		call := *turn.ToolCall
		call.Arguments = copyArgs(call.Arguments)
		turn.ToolCall = &call
	}
	if turn.Result != nil {
		result := *turn.Result
		turn.Result = &result
	}

	s.turns = append(s.turns, turn)
	observability.RecordTurn(string(turn.Role))

	return nil
}

func (s *Session) checkTurn(turn Turn) error {
	switch turn.Role {
	case RoleUser:
		if turn.ToolCall != nil || turn.Result != nil {
			return fmt.Errorf("%w: user turns cannot carry tool calls or results", ErrInvalidTurn)
		}
	case RoleAssistant:
		if turn.Result != nil {
			return fmt.Errorf("%w: assistant turns cannot carry tool results", ErrInvalidTurn)
		}
		if turn.ToolCall != nil && turn.ToolCall.ID == "" {
			return fmt.Errorf("%w: tool call has no id", ErrInvalidTurn)
		}
		if _, pending := s.pendingLocked(); pending {
			return fmt.Errorf("%w: previous tool call has no result", ErrInvalidTurn)
		}
	case RoleTool:
		if turn.Result == nil || turn.ToolCall != nil {
			return fmt.Errorf("%w: tool turns carry exactly one result", ErrInvalidTurn)
		}
		call, pending := s.pendingLocked()
		if !pending {
			return fmt.Errorf("%w: no pending tool call for result %s", ErrInvalidTurn, turn.Result.CallID)
		}
		if call.ID != turn.Result.CallID {
			return fmt.Errorf("%w: result %s does not answer pending call %s", ErrInvalidTurn, turn.Result.CallID, call.ID)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, turn.Role)
	}
	return nil
}

// Turns returns a copy of the conversation so far
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// PendingCall returns the last assistant tool call that has no result yet
func (s *Session) PendingCall() (toolexecutor.ToolCall, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pendingLocked()
}

func (s *Session) pendingLocked() (toolexecutor.ToolCall, bool) {
	if len(s.turns) == 0 {
		return toolexecutor.ToolCall{}, false
	}
	last := s.turns[len(s.turns)-1]
	if last.Role == RoleAssistant && last.ToolCall != nil {
		return *last.ToolCall, true
	}
	return toolexecutor.ToolCall{}, false
}

// State returns the current loop state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// SetState moves the loop to next and records the transition
func (s *Session) SetState(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == next {
		return nil
	}
	if !s.state.CanTransition(next) {
		return fmt.Errorf("invalid transition from %s to %s", s.state, next)
	}

	s.events = append(s.events, Event{
		Type: EventStateChanged,
		From: s.state,
		To:   next,
		Time: time.Now(),
	})
	s.state = next
	if next == Terminated {
		s.terminated = true
	}
	return nil
}

// Terminate ends the session. It is idempotent.
func (s *Session) Terminate() {
	// Every state may move to Terminated
	_ = s.SetState(Terminated)
}

// Terminated reports whether the session has ended
func (s *Session) Terminated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.terminated
}

func copyArgs(args map[string]interface{}) map[string]interface{} {
	if args == nil {
		return nil
	}
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
