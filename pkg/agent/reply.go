package agent

import (
	"strings"

	"github.com/harun/smolcc/pkg/toolexecutor"
)

// Reply is a model response interpreted for the turn loop. It is exactly one
// of PlainAnswer, ToolInvocation or MultipleToolCalls.
type Reply interface {
	reply()
}

// PlainAnswer ends the run with text for the user
type PlainAnswer struct {
	Text string
}

// ToolInvocation asks for a single tool call
type ToolInvocation struct {
	Text string
	Call toolexecutor.ToolCall
}

// MultipleToolCalls is a reply that requested more than one call. None of
// them run.
type MultipleToolCalls struct {
	Text  string
	Calls []toolexecutor.ToolCall
}

func (PlainAnswer) reply()       {}
func (ToolInvocation) reply()    {}
func (MultipleToolCalls) reply() {}

// ParseReply classifies resp. Calls without a provider ID get a generated one.
func ParseReply(resp *ModelResponse) Reply {
	if resp == nil {
		return PlainAnswer{}
	}

	calls := make([]toolexecutor.ToolCall, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		calls = append(calls, toolexecutor.NewToolCall(tc.ID, tc.Name, tc.Arguments))
	}

	text := strings.TrimSpace(resp.Text)
	switch len(calls) {
	case 0:
		return PlainAnswer{Text: text}
	case 1:
		return ToolInvocation{Text: text, Call: calls[0]}
	default:
		return MultipleToolCalls{Text: text, Calls: calls}
	}
}

// Names lists the requested tool names in order
func (m MultipleToolCalls) Names() []string {
	names := make([]string, len(m.Calls))
	for i, call := range m.Calls {
		names[i] = call.Name
	}
	return names
}
