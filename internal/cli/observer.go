package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/harun/smolcc/pkg/toolexecutor"
)

const (
	maxArgPreview    = 80
	maxResultPreview = 5
)

// consoleObserver prints a short line per tool call and a preview of its result
type consoleObserver struct {
	out io.Writer
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out}
}

func (o *consoleObserver) ToolCallStarted(call toolexecutor.ToolCall) {
	fmt.Fprintf(o.out, "⏺ %s(%s)\n", call.Name, formatArgs(call.Arguments))
}

func (o *consoleObserver) ToolCallFinished(call toolexecutor.ToolCall, result toolexecutor.ToolResult) {
	if result.IsError {
		fmt.Fprintf(o.out, "  ⎿ %s: %s\n", result.Kind, firstLine(result.Output))
		return
	}

	lines := strings.Split(strings.TrimRight(result.Output, "\n"), "\n")
	shown := lines
	if len(shown) > maxResultPreview {
		shown = shown[:maxResultPreview]
	}
	for i, line := range shown {
		prefix := "    "
		if i == 0 {
			prefix = "  ⎿ "
		}
		fmt.Fprintf(o.out, "%s%s\n", prefix, line)
	}
	if extra := len(lines) - len(shown); extra > 0 {
		fmt.Fprintf(o.out, "    ... (%d more lines)\n", extra)
	}
}

// formatArgs renders arguments as sorted key=value pairs, each value cut short
func formatArgs(args map[string]interface{}) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.ReplaceAll(fmt.Sprint(args[k]), "\n", "\\n")
		if len(v) > maxArgPreview {
			v = v[:maxArgPreview] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
