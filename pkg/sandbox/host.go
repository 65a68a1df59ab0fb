package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// HostSandbox runs commands directly on the host in their own process group
type HostSandbox struct {
	config Config
}

// NewHostSandbox creates a new host executor. It fails with
// ErrUnsupportedPlatform where a process tree cannot be killed as a group.
func NewHostSandbox(config Config) (*HostSandbox, error) {
	if err := checkPlatform(); err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HostSandbox{config: config}, nil
}

// Execute runs a command. On timeout or cancellation every process in the
// command's group is killed before Execute returns.
func (h *HostSandbox) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	if req.Command == "" {
		return ExecuteResult{}, ErrEmptyCommand
	}

	cfg := h.config

	timeout := req.Timeout
	if timeout == 0 {
		timeout = cfg.Timeout
	}

	execCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(execCtx, req.Command, req.Args...)
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}
	cmd.Env = h.buildEnvironment(cfg, req.Env)
	cmd.WaitDelay = cfg.KillGrace
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	// Background children may still hold the group; clear it either way
	killProcessGroup(cmd)

	if execCtx.Err() != nil {
		result := ExecuteResult{
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			ExitCode: -1,
			Duration: duration,
		}
		if ctx.Err() != nil {
			result.Error = ctx.Err()
		} else {
			result.Error = ErrExecutionTimeout
		}

		log.Warn().
			Str("command", req.Command).
			Dur("duration", duration).
			Err(result.Error).
			Msg("Command killed")

		return result, result.Error
	}

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	result := ExecuteResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
		Duration: duration,
	}

	if err != nil && exitCode == 0 && !errors.Is(err, exec.ErrWaitDelay) {
		result.Error = err
	}

	log.Debug().
		Str("command", req.Command).
		Int("exit_code", exitCode).
		Dur("duration", duration).
		Msg("Command executed")

	return result, nil
}

// buildEnvironment builds the environment variables for the command
func (h *HostSandbox) buildEnvironment(cfg Config, env map[string]string) []string {
	var result []string
	if cfg.InheritEnv {
		result = os.Environ()
	} else {
		result = []string{
			"PATH=/usr/local/bin:/usr/bin:/bin",
			"HOME=" + os.TempDir(),
		}
	}

	for key, value := range env {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}

	return result
}
