package coretools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/harun/smolcc/pkg/toolexecutor"
)

const maxGlobResults = 100

func globTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name: "glob",
		Description: "Finds files by glob pattern such as \"**/*.go\" or \"src/**/*.{ts,tsx}\". " +
			"Returns matching file paths sorted by modification time, at most 100. " +
			"Hidden files are only matched when the pattern names them.",
		Category: toolexecutor.CategoryRead,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "pattern", Type: "string", Description: "The glob pattern to match files against", Required: true},
			{Name: "path", Type: "string", Description: "The directory to search in. Defaults to the working directory"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return globFiles(ctx, opts, args)
		},
	}
}

type fileMatch struct {
	path    string
	modTime time.Time
}

func globFiles(ctx context.Context, opts Options, args map[string]interface{}) (string, error) {
	pattern, _ := args["pattern"].(string)
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	root, err := searchRoot(opts.WorkingDir, args["path"])
	if err != nil {
		return "", err
	}

	matches, err := matchFiles(ctx, root, pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No files found matching pattern '%s' in '%s'", pattern, root), nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].modTime.Before(matches[j].modTime)
	})

	truncated := len(matches) > maxGlobResults
	if truncated {
		matches = matches[:maxGlobResults]
	}

	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.path)
		b.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&b, "\n(Results limited to %d files. Consider using a more specific pattern.)\n", maxGlobResults)
	}
	return b.String(), nil
}

// matchFiles returns regular files under root matching pattern, as absolute paths
func matchFiles(ctx context.Context, root, pattern string) ([]fileMatch, error) {
	if filepath.IsAbs(pattern) {
		rel, err := filepath.Rel(root, pattern)
		if err != nil || strings.HasPrefix(rel, "..") {
			root = "/"
			rel = strings.TrimPrefix(filepath.ToSlash(pattern), "/")
		}
		pattern = rel
	}
	pattern = filepath.ToSlash(pattern)

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	wantHidden := strings.HasPrefix(pattern, ".") || strings.Contains(pattern, "/.")

	var matches []fileMatch
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(p string, d os.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !wantHidden && hiddenPath(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, fileMatch{
			path:    filepath.Join(root, filepath.FromSlash(p)),
			modTime: info.ModTime(),
		})
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}
	return matches, nil
}

func hiddenPath(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if skipName(part) {
			return true
		}
	}
	return false
}
