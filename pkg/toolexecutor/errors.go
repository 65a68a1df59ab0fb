package toolexecutor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound is returned when a tool name is not registered
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateToolName is returned when registering a name twice
	ErrDuplicateToolName = errors.New("duplicate tool name")

	// ErrInvalidToolSpec is returned for malformed tool specs
	ErrInvalidToolSpec = errors.New("invalid tool spec")

	// ErrNoApprovalHandler is returned when the gate has nobody to ask
	ErrNoApprovalHandler = errors.New("no approval handler configured")
)

// SchemaValidationError reports the argument keys that failed validation
type SchemaValidationError struct {
	Tool    string
	Keys    []string
	Details []string
}

func (e *SchemaValidationError) Error() string {
	msg := fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Keys, ", "))
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}
