package stateagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// modelOptions hold optional OpenAI adapter settings.
type modelOptions struct {
	model       string
	apiKey      string
	baseURL     string
	temperature float32
	httpClient  *http.Client
}

// ModelOption configures an OpenAIModel (e.g. WithModel, WithBaseURL).
type ModelOption func(*modelOptions)

// WithModel sets the completion model. Default is gpt-4o-mini.
func WithModel(model string) ModelOption {
	return func(o *modelOptions) {
		o.model = model
	}
}

// WithAPIKey sets the API key explicitly instead of reading OPENAI_API_KEY.
func WithAPIKey(key string) ModelOption {
	return func(o *modelOptions) {
		o.apiKey = key
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) ModelOption {
	return func(o *modelOptions) {
		o.baseURL = url
	}
}

// WithTemperature sets the sampling temperature. Default is 0.1.
func WithTemperature(t float32) ModelOption {
	return func(o *modelOptions) {
		o.temperature = t
	}
}

// WithHTTPClient sets a custom HTTP client (proxies, test servers).
func WithHTTPClient(c *http.Client) ModelOption {
	return func(o *modelOptions) {
		o.httpClient = c
	}
}

// OpenAIModel is a ChatModel backed by the OpenAI chat completions API.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIModel creates the adapter. The API key falls back to the
// OPENAI_API_KEY environment variable when WithAPIKey is not given.
func NewOpenAIModel(opts ...ModelOption) (*OpenAIModel, error) {
	o := modelOptions{model: openai.GPT4oMini, temperature: 0.1}
	for _, opt := range opts {
		opt(&o)
	}
	key := o.apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, errors.New("OpenAI API key is required: pass WithAPIKey or set OPENAI_API_KEY")
	}
	cfg := openai.DefaultConfig(key)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	return &OpenAIModel{
		client:      openai.NewClientWithConfig(cfg),
		model:       o.model,
		temperature: o.temperature,
	}, nil
}

// Chat implements ChatModel.
func (m *OpenAIModel) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*ChatResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		Messages:    toOpenAIMessages(messages),
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response contains no choices")
	}

	choice := resp.Choices[0]
	out := &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != openai.ToolTypeFunction {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, RawToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// ExtractCalls implements ChatModel.
func (m *OpenAIModel) ExtractCalls(resp *ChatResponse) []ToolCall {
	return ParseToolCalls(resp)
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}

// Ensure OpenAIModel implements ChatModel.
var _ ChatModel = (*OpenAIModel)(nil)
