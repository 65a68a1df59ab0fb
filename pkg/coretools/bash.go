package coretools

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/harun/smolcc/internal/observability"
	"github.com/harun/smolcc/pkg/sandbox"
	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/syntax"
)

// BannedCommands are refused before a shell is spawned
var BannedCommands = []string{
	"alias", "curl", "curlie", "wget", "axel", "aria2c", "nc", "telnet",
	"lynx", "w3m", "links", "httpie", "xh", "http-prompt", "chrome",
	"firefox", "safari",
}

const bashDescription = `Runs a bash command in the working directory with an optional timeout.

- Commands that fetch from the network or open a browser are refused: ` + "alias, curl, curlie, wget, axel, aria2c, nc, telnet, lynx, w3m, links, httpie, xh, http-prompt, chrome, firefox, safari" + `.
- The timeout is in milliseconds (max 600000). Without it the default tool timeout applies.
- Output above 30000 characters is truncated in the middle.
- Prefer the grep, glob, view and ls tools over find, grep, cat, head, tail and ls.
- Each call runs in a fresh shell. Use absolute paths instead of cd and chain commands with ';' or '&&'.
- The user confirms every call before it runs.`

func bashTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name:        "bash",
		Description: bashDescription,
		Category:    toolexecutor.CategoryShell,
		Destructive: true,
		TimeoutArg:  "timeout",
		Parameters: []toolexecutor.ToolParameter{
			{Name: "command", Type: "string", Description: "The command to execute", Required: true},
			{Name: "timeout", Type: "number", Description: "Optional timeout in milliseconds (max 600000)"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return runBash(ctx, opts, args)
		},
	}
}

func runBash(ctx context.Context, opts Options, args map[string]interface{}) (string, error) {
	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("command is required")
	}

	if banned := bannedIn(command); len(banned) > 0 {
		observability.RecordSecurityAudit(ctx, "banned_command:bash", "model", "rejected", map[string]interface{}{
			"commands": banned,
		})
		return "", fmt.Errorf("command contains one or more banned commands: %s. Please use alternative tools for these operations",
			strings.Join(BannedCommands, ", "))
	}

	workDir := opts.WorkingDir
	if execCtx := toolexecutor.ExecContextFromContext(ctx); execCtx != nil && execCtx.WorkingDir != "" {
		workDir = execCtx.WorkingDir
	}

	// The dispatcher's context bounds the run; no sandbox-level timeout
	result, err := opts.Sandbox.Execute(ctx, sandbox.ExecuteRequest{
		Command:    "bash",
		Args:       []string{"-c", command},
		Env:        map[string]string{"PWD": workDir},
		WorkingDir: workDir,
	})
	output := combineOutput(result.Stdout, result.Stderr)
	if err != nil {
		// Killed on timeout or interrupt; the dispatcher reports which
		return output, err
	}
	if result.Error != nil {
		return output, fmt.Errorf("failed to run command: %w", result.Error)
	}

	log.Debug().
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("Shell command finished")

	if result.ExitCode != 0 {
		return output, fmt.Errorf("command exited with status %d", result.ExitCode)
	}
	if output == "" {
		return "(no output)", nil
	}
	return output, nil
}

func combineOutput(stdout, stderr []byte) string {
	out := strings.TrimSpace(string(stdout))
	errOut := strings.TrimSpace(string(stderr))
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	}
	return out + "\n" + errOut
}

// bannedIn returns banned command names invoked anywhere in command. Words
// built from expansions cannot be resolved statically and are let through,
// as are commands that do not parse.
func bannedIn(command string) []string {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return nil
	}

	banned := make(map[string]bool, len(BannedCommands))
	for _, name := range BannedCommands {
		banned[name] = true
	}

	var found []string
	seen := map[string]bool{}
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok {
			return true
		}
		for _, word := range call.Args {
			lit := word.Lit()
			if lit == "" {
				continue
			}
			for _, name := range []string{lit, path.Base(lit)} {
				if banned[name] && !seen[name] {
					seen[name] = true
					found = append(found, name)
				}
			}
		}
		return true
	})
	return found
}
