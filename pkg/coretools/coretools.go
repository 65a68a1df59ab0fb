package coretools

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/harun/smolcc/pkg/sandbox"
	"github.com/harun/smolcc/pkg/toolexecutor"
)

// Options configures core tool registration.
type Options struct {
	// WorkingDir resolves relative paths and is where commands run
	WorkingDir string
	// Sandbox runs shell commands; a host sandbox is created when nil
	Sandbox sandbox.Sandbox
	// Enabled filters tools by name; nil registers all of them
	Enabled func(name string) bool
}

// Register binds the built-in capabilities to reg.
func Register(reg *toolexecutor.Registry, opts Options) error {
	if reg == nil {
		return errors.New("tool registry is required")
	}
	if strings.TrimSpace(opts.WorkingDir) == "" {
		return errors.New("working directory is required")
	}
	opts.WorkingDir = filepath.Clean(opts.WorkingDir)

	if opts.Sandbox == nil {
		sb, err := sandbox.NewHostSandbox(sandbox.Config{
			KillGrace:  sandbox.DefaultConfig().KillGrace,
			InheritEnv: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create sandbox: %w", err)
		}
		opts.Sandbox = sb
	}

	tools := []toolexecutor.ToolSpec{
		bashTool(opts),
		viewTool(opts),
		editTool(opts),
		writeTool(opts),
		lsTool(opts),
		globTool(opts),
		grepTool(opts),
	}

	for _, tool := range tools {
		if opts.Enabled != nil && !opts.Enabled(tool.Name) {
			continue
		}
		if err := reg.Register(tool); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", tool.Name, err)
		}
	}
	return nil
}

// resolvePath makes p absolute against the working directory
func resolvePath(workingDir string, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.Contains(p, "://") {
		return "", fmt.Errorf("path must be a local file")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(workingDir, p)
	}
	return filepath.Clean(p), nil
}

// searchRoot resolves an optional directory argument, defaulting to the working directory
func searchRoot(workingDir string, value interface{}) (string, error) {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return workingDir, nil
	}
	root, err := resolvePath(workingDir, raw)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path %s does not exist", root)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %s is not a directory", root)
	}
	return root, nil
}

func toStringSlice(value interface{}) []string {
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toInt(value interface{}, fallback int) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return fallback
}

// numberLines renders lines cat -n style starting at first
func numberLines(lines []string, first int) string {
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%6d\t%s\n", first+i, line)
	}
	return b.String()
}

// isBinary sniffs the head of a file for NUL bytes or invalid UTF-8
func isBinary(data []byte) bool {
	head := data
	truncated := false
	if len(head) > 8000 {
		head = head[:8000]
		truncated = true
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	if utf8.Valid(head) {
		return false
	}
	if truncated {
		// A multi-byte rune may straddle the cut
		for i := 1; i < utf8.UTFMax; i++ {
			if utf8.Valid(head[:len(head)-i]) {
				return false
			}
		}
	}
	return true
}

// skipName reports hidden entries and caches that listings leave out
func skipName(name string) bool {
	return (strings.HasPrefix(name, ".") && name != "." && name != "..") || name == "__pycache__"
}
