package agent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/template"
	"time"
)

const (
	maxTreeFiles       = 100
	maxTreeFilesPerDir = 10
	gitCommandTimeout  = 5 * time.Second
)

// treeIgnore lists directory and file names left out of the directory tree.
// Entries starting with '*' match by suffix.
var treeIgnore = []string{
	".git", "__pycache__", "*.pyc",
	"venv", "env", "dist", "build", "node_modules",
	"*.egg-info", "*.dist-info",
	"site-packages", "lib", "include", "bin", "tmp", "temp",
	"typings", "stubs", "vendored", "vendor", "third_party", "external",
	"htmlcov", "coverage", "benchmark",
}

var treeSkipSuffixes = []string{".lock", ".sum", ".mod", ".bin", ".whl"}

var promptTemplate = template.Must(template.New("system").Parse(`You are smolcc, an interactive command line assistant for software engineering tasks.
You work inside the user's project by calling tools. Call at most one tool per reply and wait for its result before deciding the next step.
Tools that modify files or run commands need the user's confirmation. If a call is denied, do not retry it; adjust your approach or ask the user.
Keep answers short and direct. Use view, ls, glob and grep to inspect the project before editing it.

<env>
Working directory: {{.WorkingDir}}
Is directory a git repo: {{if .IsGitRepo}}Yes{{else}}No{{end}}
Platform: {{.Platform}}
Today's date: {{.Date}}
Model: {{.Model}}
</env>

<context name="directoryStructure">Below is a snapshot of this project's file structure at the start of the conversation. This snapshot will NOT update during the conversation.

{{.Tree}}</context>
{{if .GitStatus}}
<context name="gitStatus">{{.GitStatus}}</context>
{{end}}
<context name="memory">The project memory note lives at {{.MemoryPath}}. Update it with the edit or write tools when you learn commands or conventions worth keeping.
{{- if .Memory}} Its current contents:

{{.Memory}}{{else}} It does not exist yet or is empty; create it with the write tool.{{end}}</context>
`))

// PromptContext is the data rendered into the system prompt
type PromptContext struct {
	WorkingDir string
	IsGitRepo  bool
	Platform   string
	Date       string
	Model      string
	Tree       string
	GitStatus  string
	MemoryPath string
	Memory     string
}

// BuildSystemPrompt describes the environment, project layout, git state and
// memory note to the model. Git failures leave the git sections empty.
func BuildSystemPrompt(ctx context.Context, workingDir, model, memoryPath, memory string, now time.Time) (string, error) {
	pc := PromptContext{
		WorkingDir: workingDir,
		IsGitRepo:  isGitRepo(ctx, workingDir),
		Platform:   runtime.GOOS,
		Date:       fmt.Sprintf("%d/%d/%d", int(now.Month()), now.Day(), now.Year()),
		Model:      model,
		Tree:       DirectoryTree(workingDir),
		MemoryPath: memoryPath,
		Memory:     memory,
	}
	if pc.IsGitRepo {
		pc.GitStatus = gitStatus(ctx, workingDir)
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, pc); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return buf.String(), nil
}

// DirectoryTree renders a bounded outline of root: at most 100 files overall
// and 10 per directory, skipping hidden, vendored and build directories.
func DirectoryTree(root string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s/\n", filepath.Clean(root))

	count := 0
	truncated := writeTree(&b, root, 1, &count)
	if truncated {
		b.WriteString("  ... (truncated for brevity)\n")
	}
	return b.String()
}

func writeTree(b *strings.Builder, dir string, depth int, count *int) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	indent := strings.Repeat("  ", depth)

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || ignoredInTree(entry.Name()) || hasSkipSuffix(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}

	shown := files
	if len(shown) > maxTreeFilesPerDir {
		shown = shown[:maxTreeFilesPerDir]
	}
	for _, name := range shown {
		if *count >= maxTreeFiles {
			return true
		}
		fmt.Fprintf(b, "%s- %s\n", indent, name)
		*count++
	}
	if extra := len(files) - len(shown); extra > 0 {
		fmt.Fprintf(b, "%s  ... (%d more files)\n", indent, extra)
	}

	for _, entry := range entries {
		if !entry.IsDir() || ignoredInTree(entry.Name()) {
			continue
		}
		if *count >= maxTreeFiles {
			return true
		}
		fmt.Fprintf(b, "%s- %s/\n", indent, entry.Name())
		if writeTree(b, filepath.Join(dir, entry.Name()), depth+1, count) {
			return true
		}
	}
	return false
}

func ignoredInTree(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range treeIgnore {
		if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
			if strings.HasSuffix(name, suffix) {
				return true
			}
		} else if name == pattern {
			return true
		}
	}
	return false
}

func hasSkipSuffix(name string) bool {
	for _, suffix := range treeSkipSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

func isGitRepo(ctx context.Context, dir string) bool {
	out, err := runGit(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

func gitStatus(ctx context.Context, dir string) string {
	branch, err := runGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = "(unknown)"
	}

	mainBranch := "main"
	if ref, err := runGit(ctx, dir, "symbolic-ref", "--short", "refs/remotes/origin/HEAD"); err == nil && ref != "" {
		mainBranch = strings.TrimPrefix(ref, "origin/")
	}

	status, _ := runGit(ctx, dir, "status", "--porcelain")
	if status == "" {
		status = "(clean)"
	}

	commits, _ := runGit(ctx, dir, "log", "--oneline", "--max-count=5")

	return fmt.Sprintf(`This is the git status at the start of the conversation. Note that this status is a snapshot in time, and will not update during the conversation.
Current branch: %s

Main branch (you will usually use this for PRs): %s

Status:
%s

Recent commits:
%s`, branch, mainBranch, status, commits)
}
