package coretools

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/harun/smolcc/pkg/toolexecutor"
)

const (
	maxViewLines      = 2000
	maxViewLineLength = 2000
	truncatedLineMark = "... (line truncated)"
)

func viewTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name: "view",
		Description: "Reads a file from the local filesystem. Returns up to 2000 lines from the start of the file, " +
			"numbered like cat -n. Use offset and limit for long files. Lines longer than 2000 characters are cut. " +
			"Relative paths are resolved against the working directory.",
		Category: toolexecutor.CategoryRead,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "file_path", Type: "string", Description: "The absolute path to the file to read", Required: true},
			{Name: "offset", Type: "number", Description: "Number of lines to skip before reading. Only provide if the file is too large to read at once"},
			{Name: "limit", Type: "number", Description: "The number of lines to read (max 2000). Only provide if the file is too large to read at once"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return viewFile(opts, args)
		},
	}
}

func viewFile(opts Options, args map[string]interface{}) (string, error) {
	p, _ := args["file_path"].(string)
	filePath, err := resolvePath(opts.WorkingDir, p)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file %s does not exist", filePath)
		}
		return "", fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, use ls to list it", filePath)
	}

	if mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filePath))); strings.HasPrefix(mimeType, "image/") {
		return fmt.Sprintf("This is an image file (%s). Images cannot be displayed in a text-only interface.", mimeType), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if isBinary(data) {
		return "This file contains binary content that cannot be displayed as text.", nil
	}
	if len(data) == 0 {
		return "(empty file)", nil
	}

	offset := toInt(args["offset"], 0)
	if offset < 0 {
		offset = 0
	}
	limit := toInt(args["limit"], maxViewLines)
	if limit <= 0 || limit > maxViewLines {
		limit = maxViewLines
	}

	lines := splitLines(string(data))
	if offset >= len(lines) {
		return fmt.Sprintf("(offset %d is past the end of the file, which has %d lines)", offset, len(lines)), nil
	}

	end := offset + limit
	if end > len(lines) {
		end = len(lines)
	}

	shown := make([]string, 0, end-offset)
	for _, line := range lines[offset:end] {
		if len([]rune(line)) > maxViewLineLength {
			line = string([]rune(line)[:maxViewLineLength]) + truncatedLineMark
		}
		shown = append(shown, line)
	}

	var b strings.Builder
	b.WriteString(numberLines(shown, offset+1))
	if end < len(lines) {
		fmt.Fprintf(&b, "\n(Showing lines %d-%d of %d. Use offset and limit to read more.)\n", offset+1, end, len(lines))
	}
	return b.String(), nil
}

// splitLines splits on newlines, dropping the empty element after a trailing one
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
