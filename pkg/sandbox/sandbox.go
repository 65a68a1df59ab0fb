package sandbox

import (
	"context"
	"time"
)

// Config defines process execution limits
type Config struct {
	// Timeout bounds a command when the request does not set one
	Timeout time.Duration `json:"timeout"`

	// KillGrace bounds how long to wait for output pipes after the process
	// group has been killed or the command has exited.
	KillGrace time.Duration `json:"kill_grace"`

	// InheritEnv passes the parent environment to commands
	InheritEnv bool `json:"inherit_env"`
}

// ExecuteRequest represents a command execution request
type ExecuteRequest struct {
	// Command is the command to execute
	Command string `json:"command"`

	// Args are the command arguments
	Args []string `json:"args"`

	// Env are extra environment variables
	Env map[string]string `json:"env"`

	// WorkingDir is the working directory
	WorkingDir string `json:"working_dir"`

	// Timeout is the execution timeout
	Timeout time.Duration `json:"timeout"`
}

// ExecuteResult represents a command execution result
type ExecuteResult struct {
	// Stdout is the standard output
	Stdout []byte `json:"stdout"`

	// Stderr is the standard error
	Stderr []byte `json:"stderr"`

	// ExitCode is the process exit code, -1 when killed
	ExitCode int `json:"exit_code"`

	// Duration is the execution duration
	Duration time.Duration `json:"duration"`

	// Error is any execution error
	Error error `json:"error,omitempty"`
}

// Sandbox runs commands under a timeout. It does not restrict what a
// command may touch; confirmation happens before a command gets here.
type Sandbox interface {
	// Execute runs a command and reaps its whole process group
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:    120 * time.Second,
		KillGrace:  2 * time.Second,
		InheritEnv: true,
	}
}

// ValidateConfig validates a configuration
func ValidateConfig(cfg Config) error {
	if cfg.Timeout < 0 || cfg.KillGrace < 0 {
		return ErrInvalidTimeout
	}
	return nil
}
