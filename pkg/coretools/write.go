package coretools

import (
	"context"
	"fmt"
	"os"

	"github.com/harun/smolcc/pkg/toolexecutor"
)

func writeTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name: "write",
		Description: "Writes content to a file, replacing it if it exists and creating parent directories as needed. " +
			"Prefer edit for changes to existing files. The user confirms every call before it runs.",
		Category:    toolexecutor.CategoryWrite,
		Destructive: true,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "file_path", Type: "string", Description: "The absolute path to the file to write", Required: true},
			{Name: "content", Type: "string", Description: "The full content to write to the file", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return writeFile(opts, args)
		},
	}
}

func writeFile(opts Options, args map[string]interface{}) (string, error) {
	p, _ := args["file_path"].(string)
	content, _ := args["content"].(string)

	filePath, err := resolvePath(opts.WorkingDir, p)
	if err != nil {
		return "", err
	}

	perm := os.FileMode(0o644)
	verb := "Created"
	if info, err := os.Stat(filePath); err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory", filePath)
		}
		perm = info.Mode().Perm()
		verb = "Updated"
	}

	if err := writeWithParents(filePath, content, perm); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s (%d lines, %d bytes)", verb, filePath, len(splitLines(content)), len(content)), nil
}
