package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func TestDirectoryTree(t *testing.T) {
	t.Run("lists files before nested directories", func(t *testing.T) {
		root := t.TempDir()
		makeFiles(t, root, "main.go", "README.md", "pkg/util/util.go")

		tree := DirectoryTree(root)

		assert.True(t, strings.HasPrefix(tree, "- "+root+"/\n"))
		assert.Contains(t, tree, "  - README.md\n")
		assert.Contains(t, tree, "  - main.go\n")
		assert.Contains(t, tree, "  - pkg/\n")
		assert.Contains(t, tree, "    - util/\n")
		assert.Contains(t, tree, "      - util.go\n")
	})

	t.Run("skips ignored entries", func(t *testing.T) {
		root := t.TempDir()
		makeFiles(t, root,
			".git/config", ".env", "node_modules/lib/index.js", "vendor/mod.go",
			"go.sum", "go.mod", "cache.pyc", "app.egg-info/PKG", "keep.go",
		)

		tree := DirectoryTree(root)

		assert.Contains(t, tree, "keep.go")
		for _, hidden := range []string{".git", ".env", "node_modules", "vendor", "go.sum", "go.mod", "cache.pyc", "egg-info"} {
			assert.NotContains(t, tree, hidden)
		}
	})

	t.Run("limits files per directory", func(t *testing.T) {
		root := t.TempDir()
		var files []string
		for i := 0; i < 13; i++ {
			files = append(files, fmt.Sprintf("f%02d.txt", i))
		}
		makeFiles(t, root, files...)

		tree := DirectoryTree(root)

		assert.Contains(t, tree, "f09.txt")
		assert.NotContains(t, tree, "f10.txt")
		assert.Contains(t, tree, "... (3 more files)")
	})

	t.Run("limits total files", func(t *testing.T) {
		root := t.TempDir()
		var files []string
		for d := 0; d < 12; d++ {
			for f := 0; f < 10; f++ {
				files = append(files, fmt.Sprintf("d%02d/f%02d.txt", d, f))
			}
		}
		makeFiles(t, root, files...)

		tree := DirectoryTree(root)

		assert.Equal(t, 100, strings.Count(tree, ".txt"))
		assert.True(t, strings.HasSuffix(tree, "  ... (truncated for brevity)\n"))
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	root := t.TempDir()
	makeFiles(t, root, "main.go")
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	t.Run("describes the environment", func(t *testing.T) {
		prompt, err := BuildSystemPrompt(context.Background(), root, "test-model", filepath.Join(root, "SMOLCC.md"), "", now)
		require.NoError(t, err)

		assert.Contains(t, prompt, "Working directory: "+root)
		assert.Contains(t, prompt, "Is directory a git repo: No")
		assert.Contains(t, prompt, "Today's date: 3/7/2025")
		assert.Contains(t, prompt, "Model: test-model")
		assert.Contains(t, prompt, "- main.go")
		assert.NotContains(t, prompt, `<context name="gitStatus">`)
	})

	t.Run("names the memory path without a note", func(t *testing.T) {
		memoryPath := filepath.Join(root, "SMOLCC.md")
		prompt, err := BuildSystemPrompt(context.Background(), root, "test-model", memoryPath, "", now)
		require.NoError(t, err)

		assert.Contains(t, prompt, `<context name="memory">`)
		assert.Contains(t, prompt, "The project memory note lives at "+memoryPath)
		assert.Contains(t, prompt, "create it with the write tool")
		assert.NotContains(t, prompt, "Its current contents")
	})

	t.Run("includes the memory note", func(t *testing.T) {
		memoryPath := filepath.Join(root, "SMOLCC.md")
		prompt, err := BuildSystemPrompt(context.Background(), root, "test-model", memoryPath, "Run tests with make test.", now)
		require.NoError(t, err)

		assert.Contains(t, prompt, `<context name="memory">`)
		assert.Contains(t, prompt, memoryPath)
		assert.Contains(t, prompt, "Its current contents:\n\nRun tests with make test.")
		assert.NotContains(t, prompt, "does not exist yet")
	})
}

func TestIgnoredInTree(t *testing.T) {
	assert.True(t, ignoredInTree(".hidden"))
	assert.True(t, ignoredInTree("node_modules"))
	assert.True(t, ignoredInTree("pkg.egg-info"))
	assert.False(t, ignoredInTree("src"))
	assert.False(t, ignoredInTree("binary.go"))
}
