package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/harun/smolcc/pkg/session"
	"github.com/harun/smolcc/pkg/toolexecutor"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ModelClient sends the conversation to a language model
type ModelClient interface {
	// Complete makes one model call
	Complete(ctx context.Context, request ModelRequest) (*ModelResponse, error)

	// Provider returns the provider name
	Provider() string
}

// ModelRequest contains the request parameters for a model call
type ModelRequest struct {
	Model        string
	SystemPrompt string
	Turns        []session.Turn
	Tools        []toolexecutor.ToolSpec
	Temperature  float64
	MaxTokens    int
}

// ModelResponse contains the model's reply before interpretation
type ModelResponse struct {
	Text       string
	ToolCalls  []toolexecutor.ToolCall
	StopReason string
	Usage      *TokenUsage
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderConfig selects and authenticates a model provider
type ProviderConfig struct {
	Provider string
	// APIKey overrides the provider's environment variable
	APIKey  string
	BaseURL string
}

// APIKeyEnv returns the environment variable holding the provider's key
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// NewModelClient creates a client for cfg.Provider. The API key comes from
// cfg or, failing that, from the provider's environment variable.
func NewModelClient(cfg ProviderConfig) (ModelClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderAnthropic
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv(provider))
	}

	switch provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, APIKeyEnv(provider))
	}

	if provider == ProviderOpenAI {
		return NewOpenAIProvider(apiKey, cfg.BaseURL), nil
	}
	return NewAnthropicProvider(apiKey, cfg.BaseURL), nil
}
