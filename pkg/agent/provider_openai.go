package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/harun/smolcc/pkg/session"
	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// unparsedArgumentsKey holds tool arguments that were not a JSON object. The
// key is not in any schema, so validation rejects the call.
const unparsedArgumentsKey = "_unparsed_arguments"

var errNoChoices = errors.New("no response choices returned")

// OpenAIProvider implements ModelClient for OpenAI
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
	}
}

// Provider returns the provider name
func (p *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

// Complete makes an API call to OpenAI
func (p *OpenAIProvider) Complete(ctx context.Context, request ModelRequest) (*ModelResponse, error) {
	messages, err := openaiMessages(request.SystemPrompt, request.Turns)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(request.Model),
		Messages: messages,
	}

	if request.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(request.MaxTokens))
	}

	if request.Temperature > 0 {
		params.Temperature = openai.Float(request.Temperature)
	}

	if len(request.Tools) > 0 {
		params.Tools = openaiTools(request.Tools)
		params.ParallelToolCalls = openai.Bool(false)
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errNoChoices
	}

	choice := response.Choices[0]

	result := &ModelResponse{
		Text:       choice.Message.Content,
		StopReason: choice.FinishReason,
		Usage: &TokenUsage{
			InputTokens:  int(response.Usage.PromptTokens),
			OutputTokens: int(response.Usage.CompletionTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, toolexecutor.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: parseArguments(tc.Function.Arguments),
		})
	}

	return result, nil
}

// parseArguments decodes a JSON object. Anything else is kept verbatim under
// unparsedArgumentsKey.
func parseArguments(raw string) map[string]interface{} {
	args := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]interface{}{unparsedArgumentsKey: raw}
	}
	return args
}

func openaiMessages(systemPrompt string, turns []session.Turn) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}

	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}

	for _, turn := range turns {
		switch turn.Role {
		case session.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Text))

		case session.RoleAssistant:
			if turn.ToolCall == nil {
				messages = append(messages, openai.AssistantMessage(turn.Text))
				continue
			}

			arguments, err := json.Marshal(turn.ToolCall.Arguments)
			if err != nil {
				return nil, err
			}

			assistant := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
					ID: turn.ToolCall.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      turn.ToolCall.Name,
						Arguments: string(arguments),
					},
				}},
			}
			if turn.Text != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(turn.Text),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

		case session.RoleTool:
			if turn.Result == nil {
				continue
			}
			messages = append(messages, openai.ToolMessage(turn.Result.Output, turn.Result.CallID))
		}
	}

	return messages, nil
}

func openaiTools(specs []toolexecutor.ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  openai.FunctionParameters(spec.InputSchema()),
			},
		})
	}
	return tools
}
