package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, 4096, cfg.Model.MaxTokens)
	assert.Equal(t, 3, cfg.Model.MaxRetries)
	assert.Equal(t, 120, cfg.Tools.TimeoutSeconds)
	assert.Equal(t, 600, cfg.Tools.MaxTimeoutSeconds)
	assert.Equal(t, []string{"*"}, cfg.Tools.Allow)
	assert.Equal(t, 25, cfg.Session.MaxSteps)
	assert.Equal(t, "SMOLCC.md", cfg.Session.MemoryFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Model.Provider = "gemini"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid provider")
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Session.MaxSteps = 0
		cfg.Logging.Level = "verbose"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.max_steps")
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestModelName(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultAnthropicModel, cfg.ModelName())

	cfg.Model.Provider = ProviderOpenAI
	assert.Equal(t, DefaultOpenAIModel, cfg.ModelName())

	cfg.Model.Name = "gpt-4.1"
	assert.Equal(t, "gpt-4.1", cfg.ModelName())
}

func TestSessionConfig(t *testing.T) {
	t.Run("derives session values", func(t *testing.T) {
		dir := t.TempDir()
		cfg := DefaultConfig()

		sc, err := cfg.SessionConfig(dir)
		require.NoError(t, err)

		assert.Equal(t, dir, sc.WorkingDir)
		assert.Equal(t, filepath.Join(dir, "SMOLCC.md"), sc.MemoryPath)
		assert.Equal(t, DefaultAnthropicModel, sc.Model)
		assert.Equal(t, 120*time.Second, sc.ToolTimeout)
		assert.Equal(t, 600*time.Second, sc.MaxToolTimeout)
		assert.Equal(t, time.Duration(0), sc.ApprovalTimeout)
		assert.Equal(t, 25, sc.MaxSteps)
		assert.Equal(t, 30000, sc.MaxOutput)
	})

	t.Run("absolute memory file is kept", func(t *testing.T) {
		dir := t.TempDir()
		cfg := DefaultConfig()
		cfg.Session.MemoryFile = filepath.Join(dir, "notes", "MEMORY.md")

		sc, err := cfg.SessionConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, cfg.Session.MemoryFile, sc.MemoryPath)
	})

	t.Run("missing directory", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := cfg.SessionConfig(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		cfg := DefaultConfig()
		_, err := cfg.SessionConfig(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestToolEnabled(t *testing.T) {
	tests := []struct {
		name  string
		allow []string
		deny  []string
		tool  string
		want  bool
	}{
		{"wildcard allows", []string{"*"}, nil, "bash", true},
		{"empty allow allows", nil, nil, "view", true},
		{"deny wins", []string{"*"}, []string{"bash"}, "bash", false},
		{"not in allow list", []string{"view", "ls"}, nil, "edit", false},
		{"pattern allow", []string{"g*"}, nil, "grep", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := ToolsConfig{Allow: tt.allow, Deny: tt.deny}
			assert.Equal(t, tt.want, tools.ToolEnabled(tt.tool))
		})
	}
}
