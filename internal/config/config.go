package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	DefaultAnthropicModel = "claude-3-7-sonnet-20250219"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultMemoryFile     = "SMOLCC.md"
	DefaultMaxSteps       = 25
)

// Config represents the main smolcc configuration
type Config struct {
	// Model
	Model ModelConfig `json:"model" mapstructure:"model"`

	// Tools
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Session
	Session SessionSettings `json:"session" mapstructure:"session"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Observability
	Observability ObservabilityConfig `json:"observability" mapstructure:"observability"`

	// Data directory for logs and audit records
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ModelConfig selects the model provider and request parameters
type ModelConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // anthropic, openai
	Name        string  `json:"name" mapstructure:"name"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxRetries  int     `json:"max_retries" mapstructure:"max_retries"`
	BaseURL     string  `json:"base_url" mapstructure:"base_url"`
}

// ToolsConfig holds tool execution limits and the tool allow/deny policy
type ToolsConfig struct {
	TimeoutSeconds         int      `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTimeoutSeconds      int      `json:"max_timeout_seconds" mapstructure:"max_timeout_seconds"`
	ApprovalTimeoutSeconds int      `json:"approval_timeout_seconds" mapstructure:"approval_timeout_seconds"` // 0 waits forever
	MaxOutputChars         int      `json:"max_output_chars" mapstructure:"max_output_chars"`
	Allow                  []string `json:"allow" mapstructure:"allow"`
	Deny                   []string `json:"deny" mapstructure:"deny"`
}

// SessionSettings holds per-session limits
type SessionSettings struct {
	MaxSteps   int    `json:"max_steps" mapstructure:"max_steps"`
	MemoryFile string `json:"memory_file" mapstructure:"memory_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	Console   bool   `json:"console" mapstructure:"console"`
}

// ObservabilityConfig holds metrics, audit and tracing settings
type ObservabilityConfig struct {
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`
	AuditFile   string `json:"audit_file" mapstructure:"audit_file"`
	Tracing     bool   `json:"tracing" mapstructure:"tracing"`
}

// SessionConfig is the immutable per-session value handed to every
// component. It is derived once at startup.
type SessionConfig struct {
	WorkingDir      string
	MemoryPath      string
	Provider        string
	Model           string
	BaseURL         string
	MaxTokens       int
	Temperature     float64
	MaxRetries      int
	MaxSteps        int
	ToolTimeout     time.Duration
	MaxToolTimeout  time.Duration
	ApprovalTimeout time.Duration
	MaxOutput       int
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    ProviderAnthropic,
			MaxTokens:   4096,
			Temperature: 0,
			MaxRetries:  3,
		},
		Tools: ToolsConfig{
			TimeoutSeconds:         120,
			MaxTimeoutSeconds:      600,
			ApprovalTimeoutSeconds: 0,
			MaxOutputChars:         30000,
			Allow:                  []string{"*"},
			Deny:                   []string{},
		},
		Session: SessionSettings{
			MaxSteps:   DefaultMaxSteps,
			MemoryFile: DefaultMemoryFile,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
			Console:   false,
		},
		Observability: ObservabilityConfig{
			Tracing: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}

// ModelName returns the configured model or the provider's default
func (c *Config) ModelName() string {
	if c.Model.Name != "" {
		return c.Model.Name
	}
	if c.Model.Provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultAnthropicModel
}

// SessionConfig derives the session value for cwd, which must be an
// existing directory.
func (c *Config) SessionConfig(cwd string) (SessionConfig, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return SessionConfig{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		cwd = wd
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return SessionConfig{}, fmt.Errorf("working directory %s is not a directory", abs)
	}

	memoryFile := c.Session.MemoryFile
	if memoryFile == "" {
		memoryFile = DefaultMemoryFile
	}
	memoryPath := memoryFile
	if !filepath.IsAbs(memoryPath) {
		memoryPath = filepath.Join(abs, memoryFile)
	}

	maxSteps := c.Session.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	return SessionConfig{
		WorkingDir:      abs,
		MemoryPath:      memoryPath,
		Provider:        c.Model.Provider,
		Model:           c.ModelName(),
		BaseURL:         c.Model.BaseURL,
		MaxTokens:       c.Model.MaxTokens,
		Temperature:     c.Model.Temperature,
		MaxRetries:      c.Model.MaxRetries,
		MaxSteps:        maxSteps,
		ToolTimeout:     time.Duration(c.Tools.TimeoutSeconds) * time.Second,
		MaxToolTimeout:  time.Duration(c.Tools.MaxTimeoutSeconds) * time.Second,
		ApprovalTimeout: time.Duration(c.Tools.ApprovalTimeoutSeconds) * time.Second,
		MaxOutput:       c.Tools.MaxOutputChars,
	}, nil
}
