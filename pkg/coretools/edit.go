package coretools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/harun/smolcc/pkg/toolexecutor"
)

const snippetContext = 4

var lineNumberPrefix = regexp.MustCompile(`^\s*\d+\t`)

const editDescription = `Edits a file by replacing exactly one occurrence of old_string with new_string.

- old_string must match the file exactly, including whitespace and indentation, and must be unique. Include enough surrounding lines to identify a single location.
- Line-number prefixes copied from view output are removed from old_string before matching.
- An empty old_string creates the file when it does not exist, or appends new_string when it does.
- Use view first to see the current content. Use write to replace a whole file.
- The user confirms every call before it runs.`

func editTool(opts Options) toolexecutor.ToolSpec {
	return toolexecutor.ToolSpec{
		Name:        "edit",
		Description: editDescription,
		Category:    toolexecutor.CategoryWrite,
		Destructive: true,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "file_path", Type: "string", Description: "The absolute path to the file to modify", Required: true},
			{Name: "old_string", Type: "string", Description: "The text to replace (without line numbers)", Required: true},
			{Name: "new_string", Type: "string", Description: "The text to replace it with", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return editFile(opts, args)
		},
	}
}

func editFile(opts Options, args map[string]interface{}) (string, error) {
	p, _ := args["file_path"].(string)
	oldString, _ := args["old_string"].(string)
	newString, _ := args["new_string"].(string)

	filePath, err := resolvePath(opts.WorkingDir, p)
	if err != nil {
		return "", err
	}

	info, statErr := os.Stat(filePath)
	if os.IsNotExist(statErr) {
		if oldString != "" {
			return "", fmt.Errorf("file %s does not exist", filePath)
		}
		if err := writeWithParents(filePath, newString, 0o644); err != nil {
			return "", err
		}
		return editResult(filePath, newString, 0, strings.Count(newString, "\n")+1), nil
	}
	if statErr != nil {
		return "", fmt.Errorf("failed to stat %s: %w", filePath, statErr)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path %s is not a file", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if isBinary(data) {
		return "", fmt.Errorf("%s contains binary content and cannot be edited", filePath)
	}
	content := string(data)

	cleaned := stripLineNumbers(oldString)

	var updated string
	var at int
	switch {
	case cleaned == "":
		updated = content + newString
		at = len(content)
	default:
		count := strings.Count(content, cleaned)
		if count == 0 {
			return "", fmt.Errorf("%s", notFoundMessage(content, cleaned, oldString))
		}
		if count > 1 {
			return "", fmt.Errorf("the specified text appears %d times in the file. Please provide more context to uniquely identify which instance to replace", count)
		}
		at = strings.Index(content, cleaned)
		updated = content[:at] + newString + content[at+len(cleaned):]
	}

	if err := os.WriteFile(filePath, []byte(updated), info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filePath, err)
	}

	firstLine := strings.Count(updated[:at], "\n")
	return editResult(filePath, updated, firstLine, strings.Count(newString, "\n")+1), nil
}

// stripLineNumbers removes "   12\t" prefixes pasted from view output
func stripLineNumbers(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = lineNumberPrefix.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}

func notFoundMessage(content, cleaned, original string) string {
	var suggestions []string

	if cleaned != original {
		suggestions = append(suggestions, "old_string contained line numbers from view output. They were removed, but the text still does not match.")
	}

	first := strings.TrimSpace(strings.SplitN(cleaned, "\n", 2)[0])
	if first != "" {
		var similar []string
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(strings.TrimSpace(line), first) {
				similar = append(similar, fmt.Sprintf("Line %d: %s", i+1, line))
				if len(similar) == 5 {
					break
				}
			}
		}
		if len(similar) > 0 {
			suggestions = append(suggestions, "Found similar text at:\n"+strings.Join(similar, "\n"))
		}
	}

	var b strings.Builder
	b.WriteString("the specified text was not found in the file.\n\n")
	if len(suggestions) > 0 {
		b.WriteString("Suggestions:\n")
		for _, s := range suggestions {
			b.WriteString("• " + s + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Use view to see the actual file content and check for differences in whitespace, line endings, or text.")
	return b.String()
}

// editResult reports the change with a numbered window around the edited lines
func editResult(filePath, content string, firstLine, changed int) string {
	lines := splitLines(content)

	start := firstLine - snippetContext
	if start < 0 {
		start = 0
	}
	end := firstLine + changed + snippetContext
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}

	return fmt.Sprintf("The file %s has been updated. Here's the result of running `cat -n` on a snippet of the edited file:\n%s",
		filePath, numberLines(lines[start:end], start+1))
}

func writeWithParents(filePath, content string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}
	if err := os.WriteFile(filePath, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return nil
}
