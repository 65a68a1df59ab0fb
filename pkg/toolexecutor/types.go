package toolexecutor

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies a failed tool result. Tool-level failures are returned
// to the model as data and never abort the session.
type ErrorKind string

const (
	ErrorKindNone                      ErrorKind = ""
	ErrorKindToolNotFound              ErrorKind = "tool_not_found"
	ErrorKindSchemaValidation          ErrorKind = "schema_validation_error"
	ErrorKindMultipleToolCallsRejected ErrorKind = "multiple_tool_calls_rejected"
	ErrorKindConfirmationDenied        ErrorKind = "confirmation_denied"
	ErrorKindExecutionError            ErrorKind = "execution_error"
	ErrorKindExecutionTimeout          ErrorKind = "execution_timeout"
	ErrorKindInterrupted               ErrorKind = "interrupted"
)

// ToolCall is a single request by the model to run a named tool
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewToolCall creates a tool call, generating a correlation ID when the
// provider did not supply one.
func NewToolCall(id, name string, args map[string]interface{}) ToolCall {
	if id == "" {
		id = "call_" + uuid.New().String()
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return ToolCall{ID: id, Name: name, Arguments: args}
}

// ToolResult is the outcome of a tool call, correlated by CallID
type ToolResult struct {
	CallID  string    `json:"call_id"`
	Output  string    `json:"output"`
	IsError bool      `json:"is_error"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// SuccessResult wraps capability output for a call
func SuccessResult(callID, output string) ToolResult {
	return ToolResult{CallID: callID, Output: output}
}

// ErrorResult builds a failed result of the given kind
func ErrorResult(callID string, kind ErrorKind, format string, args ...interface{}) ToolResult {
	return ToolResult{
		CallID:  callID,
		Output:  fmt.Sprintf("Error [%s]: %s", kind, fmt.Sprintf(format, args...)),
		IsError: true,
		Kind:    kind,
	}
}
