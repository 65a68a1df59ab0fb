package coretools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/harun/smolcc/pkg/toolexecutor"
)

const (
	maxGrepFiles        = 10
	maxGrepLinesPerFile = 5
	maxGrepScanned      = 1000
	maxGrepLineLength   = 300
)

var errScanLimit = errors.New("scan limit reached")

func grepTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name: "grep",
		Description: "Searches file contents with a regular expression (RE2 syntax, e.g. \"log.*Error\", \"func\\s+\\w+\"). " +
			"include filters files by glob, e.g. \"*.go\" or \"*.{ts,tsx}\". " +
			"Returns matching files newest first, at most 10, with the line numbers of their matches.",
		Category: toolexecutor.CategoryRead,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "pattern", Type: "string", Description: "The regular expression pattern to search for in file contents", Required: true},
			{Name: "include", Type: "string", Description: "File pattern to include in the search (e.g. \"*.js\", \"*.{ts,tsx}\")"},
			{Name: "path", Type: "string", Description: "The directory to search in. Defaults to the working directory"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return grepFiles(ctx, opts, args)
		},
	}
}

type lineMatch struct {
	number int
	text   string
}

type grepHit struct {
	path    string
	modTime time.Time
	lines   []lineMatch
}

func grepFiles(ctx context.Context, opts Options, args map[string]interface{}) (string, error) {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regular expression pattern: %w", err)
	}

	include, _ := args["include"].(string)
	include = filepath.ToSlash(strings.TrimSpace(include))
	if include != "" && !doublestar.ValidatePattern(include) {
		return "", fmt.Errorf("invalid include pattern %q", include)
	}

	root, err := searchRoot(opts.WorkingDir, args["path"])
	if err != nil {
		return "", err
	}

	files, err := candidateFiles(ctx, root, include)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		if include == "" {
			include = "*"
		}
		return fmt.Sprintf("No files found matching include pattern: %s", include), nil
	}

	var hits []grepHit
	total := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		hit, ok := searchFile(file, re)
		if !ok {
			continue
		}
		hits = append(hits, hit)
		total += len(hit.lines)
	}

	if len(hits) == 0 {
		return fmt.Sprintf("No matches found for pattern '%s' in %d files", pattern, len(files)), nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].modTime.After(hits[j].modTime)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches in %d files for pattern '%s' in %s", total, len(hits), pattern, root)
	if len(hits) > maxGrepFiles {
		fmt.Fprintf(&b, " (showing first %d files)", maxGrepFiles)
		hits = hits[:maxGrepFiles]
	}
	b.WriteString("\n")

	for _, hit := range hits {
		fmt.Fprintf(&b, "\n%s\n", hit.path)
		shown := hit.lines
		if len(shown) > maxGrepLinesPerFile {
			shown = shown[:maxGrepLinesPerFile]
		}
		for _, m := range shown {
			fmt.Fprintf(&b, "%6d | %s\n", m.number, m.text)
		}
		if rest := len(hit.lines) - len(shown); rest > 0 {
			fmt.Fprintf(&b, "       ... and %d more matches\n", rest)
		}
	}
	return b.String(), nil
}

// candidateFiles walks root for regular files accepted by include, skipping hidden entries
func candidateFiles(ctx context.Context, root, include string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p != root && skipName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, _ := filepath.Rel(root, p)
		if include != "" && !includeMatches(include, filepath.ToSlash(rel)) {
			return nil
		}
		files = append(files, p)
		if len(files) >= maxGrepScanned {
			return errScanLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errScanLimit) {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// includeMatches matches patterns without a slash against the base name only
func includeMatches(include, rel string) bool {
	if !strings.Contains(include, "/") {
		ok, _ := doublestar.Match(include, filepath.Base(rel))
		return ok
	}
	ok, _ := doublestar.Match(include, rel)
	return ok
}

func searchFile(path string, re *regexp.Regexp) (grepHit, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return grepHit{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil || isBinary(data) {
		return grepHit{}, false
	}

	hit := grepHit{path: path, modTime: info.ModTime()}
	for i, line := range strings.Split(string(data), "\n") {
		if !re.MatchString(line) {
			continue
		}
		line = strings.TrimRight(line, "\r")
		if len([]rune(line)) > maxGrepLineLength {
			line = string([]rune(line)[:maxGrepLineLength]) + "..."
		}
		hit.lines = append(hit.lines, lineMatch{number: i + 1, text: line})
	}
	return hit, len(hit.lines) > 0
}
