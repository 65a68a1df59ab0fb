package sandbox

import "errors"

var (
	// ErrInvalidTimeout is returned when the timeout is invalid
	ErrInvalidTimeout = errors.New("invalid timeout (must be >= 0)")

	// ErrEmptyCommand is returned when no command is given
	ErrEmptyCommand = errors.New("command cannot be empty")

	// ErrExecutionTimeout is returned when execution times out
	ErrExecutionTimeout = errors.New("execution timed out")

	// ErrUnsupportedPlatform is returned where commands cannot be reaped as a group
	ErrUnsupportedPlatform = errors.New("host execution is not supported on this platform")
)
