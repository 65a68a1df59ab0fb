package session

import (
	"testing"

	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New("/work", "/work/SMOLCC.md", "remember: run make test")
	require.NoError(t, err)
	return s
}

func callTurn(id, name string) Turn {
	call := toolexecutor.NewToolCall(id, name, map[string]interface{}{"file_path": "/work/a.txt"})
	return Turn{Role: RoleAssistant, Text: "reading", ToolCall: &call}
}

func resultTurn(id string) Turn {
	result := toolexecutor.SuccessResult(id, "contents")
	return Turn{Role: RoleTool, Result: &result}
}

func TestNew(t *testing.T) {
	s := newTestSession(t)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "/work", s.WorkingDir)
	assert.Equal(t, "remember: run make test", s.Memory())
	assert.Equal(t, AwaitingUserInput, s.State())
	assert.False(t, s.Terminated())
	assert.Empty(t, s.Turns())

	other := newTestSession(t)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestAppend_OrderedConversation(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Append(Turn{Role: RoleUser, Text: "read a.txt"}))
	require.NoError(t, s.Append(callTurn("c1", "view")))
	require.NoError(t, s.Append(resultTurn("c1")))
	require.NoError(t, s.Append(Turn{Role: RoleAssistant, Text: "done"}))

	turns := s.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, []Role{RoleUser, RoleAssistant, RoleTool, RoleAssistant},
		[]Role{turns[0].Role, turns[1].Role, turns[2].Role, turns[3].Role})
	assert.Equal(t, "c1", turns[2].Result.CallID)
	for _, turn := range turns {
		assert.False(t, turn.Timestamp.IsZero())
	}
}

func TestAppend_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		setup []Turn
		turn  Turn
	}{
		{name: "unknown role", turn: Turn{Role: "system", Text: "x"}},
		{name: "user with result", turn: Turn{Role: RoleUser, Result: &toolexecutor.ToolResult{CallID: "c1"}}},
		{name: "result without pending call", turn: resultTurn("c1")},
		{name: "call without id", turn: Turn{Role: RoleAssistant, ToolCall: &toolexecutor.ToolCall{Name: "view"}}},
		{name: "result for other call", setup: []Turn{callTurn("c1", "view")}, turn: resultTurn("c2")},
		{name: "assistant before result", setup: []Turn{callTurn("c1", "view")}, turn: Turn{Role: RoleAssistant, Text: "again"}},
		{name: "tool turn with call", setup: []Turn{callTurn("c1", "view")}, turn: Turn{
			Role:     RoleTool,
			ToolCall: &toolexecutor.ToolCall{ID: "c1", Name: "view"},
			Result:   &toolexecutor.ToolResult{CallID: "c1"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			for _, turn := range tt.setup {
				require.NoError(t, s.Append(turn))
			}
			err := s.Append(tt.turn)
			assert.ErrorIs(t, err, ErrInvalidTurn)
			assert.Len(t, s.Turns(), len(tt.setup))
		})
	}
}

func TestAppend_UnnamedCallIsRecorded(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Append(Turn{Role: RoleUser, Text: "hi"}))
	require.NoError(t, s.Append(callTurn("c1", "")))

	call, pending := s.PendingCall()
	require.True(t, pending)
	assert.Equal(t, "c1", call.ID)
	assert.Empty(t, call.Name)
}

func TestAppend_HistoryIsImmutable(t *testing.T) {
	s := newTestSession(t)
	turn := callTurn("c1", "view")
	require.NoError(t, s.Append(turn))

	turn.ToolCall.Arguments["file_path"] = "/etc/passwd"
	turn.ToolCall.Name = "bash"

	stored := s.Turns()[0]
	assert.Equal(t, "view", stored.ToolCall.Name)
	assert.Equal(t, "/work/a.txt", stored.ToolCall.Arguments["file_path"])
}

func TestPendingCall(t *testing.T) {
	s := newTestSession(t)

	_, ok := s.PendingCall()
	assert.False(t, ok)

	require.NoError(t, s.Append(callTurn("c1", "view")))
	call, ok := s.PendingCall()
	require.True(t, ok)
	assert.Equal(t, "c1", call.ID)

	require.NoError(t, s.Append(resultTurn("c1")))
	_, ok = s.PendingCall()
	assert.False(t, ok)
}

func TestTerminate(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetState(AwaitingModelResponse))

	s.Terminate()
	s.Terminate()

	assert.True(t, s.Terminated())
	assert.Equal(t, Terminated, s.State())
	assert.ErrorIs(t, s.Append(Turn{Role: RoleUser, Text: "more"}), ErrTerminated)
	assert.Error(t, s.SetState(AwaitingUserInput))

	transitions := s.EventsOfType(EventStateChanged)
	require.Len(t, transitions, 2)
	assert.Equal(t, AwaitingModelResponse, transitions[1].From)
	assert.Equal(t, Terminated, transitions[1].To)
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{AwaitingUserInput, AwaitingModelResponse, true},
		{AwaitingUserInput, AwaitingToolExecution, false},
		{AwaitingModelResponse, AwaitingToolApproval, true},
		{AwaitingModelResponse, AwaitingToolExecution, true},
		{AwaitingToolApproval, AwaitingToolExecution, true},
		{AwaitingToolApproval, AwaitingModelResponse, true},
		{AwaitingToolExecution, AwaitingModelResponse, true},
		{AwaitingToolExecution, AwaitingToolApproval, false},
		{Terminated, AwaitingUserInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestEvents(t *testing.T) {
	s := newTestSession(t)
	s.Record(Event{Type: EventApprovalRequested, CallID: "c1", Tool: "bash"})
	s.Record(Event{Type: EventApprovalDenied, CallID: "c1", Tool: "bash", Detail: "denied by user"})

	events := s.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventApprovalRequested, events[0].Type)
	assert.False(t, events[0].Time.IsZero())
	assert.Len(t, s.EventsOfType(EventApprovalDenied), 1)

	text, err := AwaitingToolApproval.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "awaiting_tool_approval", string(text))
}
