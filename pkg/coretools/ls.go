package coretools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/harun/smolcc/pkg/toolexecutor"
)

const maxListEntries = 1000

func lsTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name: "ls",
		Description: "Lists the files and directories at path, directories first. Hidden entries are skipped. " +
			"ignore takes glob patterns matched against entry names and full paths. " +
			"Prefer glob and grep when you know what you are looking for.",
		Category: toolexecutor.CategoryRead,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "path", Type: "string", Description: "The absolute path to the directory to list", Required: true},
			{Name: "ignore", Type: "array", Items: "string", Description: "List of glob patterns to ignore"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return listDir(opts, args)
		},
	}
}

type dirEntry struct {
	name  string
	isDir bool
	size  int64
}

func listDir(opts Options, args map[string]interface{}) (string, error) {
	p, _ := args["path"].(string)
	dir, err := resolvePath(opts.WorkingDir, p)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path %s does not exist", dir)
		}
		return "", fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %s is not a directory", dir)
	}

	ignore := toStringSlice(args["ignore"])
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return "", fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var listed []dirEntry
	truncated := false
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		if skipName(name) || ignored(ignore, name, full) {
			continue
		}
		if len(listed) >= maxListEntries {
			truncated = true
			break
		}

		// Follow symlinks so linked directories list as directories
		fi, err := os.Stat(full)
		if err != nil {
			continue
		}
		listed = append(listed, dirEntry{name: name, isDir: fi.IsDir(), size: fi.Size()})
	}

	sort.Slice(listed, func(i, j int) bool {
		if listed[i].isDir != listed[j].isDir {
			return listed[i].isDir
		}
		return strings.ToLower(listed[i].name) < strings.ToLower(listed[j].name)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s/\n", strings.TrimSuffix(dir, string(filepath.Separator)))
	if len(listed) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, e := range listed {
		if e.isDir {
			fmt.Fprintf(&b, "  - %s/\n", e.name)
		} else {
			fmt.Fprintf(&b, "  - %s (%s)\n", e.name, formatSize(e.size))
		}
	}
	if truncated {
		fmt.Fprintf(&b, "\n(Listing limited to %d entries. Use a more specific path or ignore patterns.)\n", maxListEntries)
	}
	return b.String(), nil
}

func ignored(patterns []string, name, full string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(full)); ok {
			return true
		}
	}
	return false
}

func formatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
}
