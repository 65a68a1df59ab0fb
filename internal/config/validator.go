package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateProvider validates a model provider name
func (v *Validator) ValidateProvider(provider string) error {
	switch provider {
	case ProviderAnthropic, ProviderOpenAI:
		return nil
	}
	return fmt.Errorf("invalid provider: %q (must be one of: %s, %s)", provider, ProviderAnthropic, ProviderOpenAI)
}

// ValidateTemperature validates temperature value
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateToolPattern validates an allow/deny tool name pattern
func (v *Validator) ValidateToolPattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("tool pattern cannot be empty")
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid tool pattern: %q", pattern)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateProvider(cfg.Model.Provider); err != nil {
		errors = append(errors, fmt.Errorf("model: %w", err))
	}
	if err := v.ValidateTemperature(cfg.Model.Temperature); err != nil {
		errors = append(errors, fmt.Errorf("model: %w", err))
	}
	if err := v.ValidateMaxTokens(cfg.Model.MaxTokens); err != nil {
		errors = append(errors, fmt.Errorf("model: %w", err))
	}
	if cfg.Model.MaxRetries < 1 {
		errors = append(errors, fmt.Errorf("model.max_retries must be >= 1"))
	}

	if cfg.Tools.TimeoutSeconds <= 0 {
		errors = append(errors, fmt.Errorf("tools.timeout_seconds must be positive"))
	}
	if cfg.Tools.MaxTimeoutSeconds < cfg.Tools.TimeoutSeconds {
		errors = append(errors, fmt.Errorf("tools.max_timeout_seconds must be >= tools.timeout_seconds"))
	}
	if cfg.Tools.ApprovalTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("tools.approval_timeout_seconds must be >= 0"))
	}
	if cfg.Tools.MaxOutputChars <= 0 {
		errors = append(errors, fmt.Errorf("tools.max_output_chars must be positive"))
	}
	for _, pattern := range append(append([]string{}, cfg.Tools.Allow...), cfg.Tools.Deny...) {
		if err := v.ValidateToolPattern(pattern); err != nil {
			errors = append(errors, fmt.Errorf("tools: %w", err))
		}
	}

	if cfg.Session.MaxSteps <= 0 {
		errors = append(errors, fmt.Errorf("session.max_steps must be positive"))
	}
	if strings.TrimSpace(cfg.Session.MemoryFile) == "" {
		errors = append(errors, fmt.Errorf("session.memory_file cannot be empty"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 || cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size and logging.max_age must be >= 0"))
	}

	return errors
}
