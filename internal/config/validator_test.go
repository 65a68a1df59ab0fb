package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProvider(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateProvider("anthropic"))
	assert.NoError(t, v.ValidateProvider("openai"))
	assert.Error(t, v.ValidateProvider("gemini"))
	assert.Error(t, v.ValidateProvider(""))
}

func TestValidateTemperature(t *testing.T) {
	v := NewValidator()

	t.Run("valid range", func(t *testing.T) {
		assert.NoError(t, v.ValidateTemperature(0))
		assert.NoError(t, v.ValidateTemperature(0.7))
		assert.NoError(t, v.ValidateTemperature(1))
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Error(t, v.ValidateTemperature(-0.1))
		assert.Error(t, v.ValidateTemperature(1.5))
	})
}

func TestValidateMaxTokens(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateMaxTokens(4096))
	assert.Error(t, v.ValidateMaxTokens(0))
	assert.Error(t, v.ValidateMaxTokens(300000))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level))
	}
	assert.Error(t, v.ValidateLogLevel("trace"))
}

func TestValidateToolPattern(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateToolPattern("*"))
	assert.NoError(t, v.ValidateToolPattern("{view,ls}"))
	assert.Error(t, v.ValidateToolPattern(""))
	assert.Error(t, v.ValidateToolPattern("[unclosed"))
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("defaults are valid", func(t *testing.T) {
		assert.Empty(t, v.ValidateConfig(DefaultConfig()))
	})

	t.Run("bad limits", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.TimeoutSeconds = 0
		cfg.Tools.ApprovalTimeoutSeconds = -1
		cfg.Model.MaxRetries = 0

		errs := v.ValidateConfig(cfg)
		var joined []string
		for _, err := range errs {
			joined = append(joined, err.Error())
		}
		msg := strings.Join(joined, "\n")

		assert.Contains(t, msg, "tools.timeout_seconds")
		assert.Contains(t, msg, "tools.approval_timeout_seconds")
		assert.Contains(t, msg, "model.max_retries")
	})

	t.Run("max timeout below timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.MaxTimeoutSeconds = 60

		errs := v.ValidateConfig(cfg)
		assert.Len(t, errs, 1)
	})

	t.Run("invalid deny pattern", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.Deny = []string{"[bash"}

		assert.Len(t, v.ValidateConfig(cfg), 1)
	})
}
