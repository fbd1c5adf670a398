package stateagent

import (
	"context"
	"encoding/json"
)

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RawToolCall is a function invocation as returned by the provider, with the
// argument payload still in JSON form.
type RawToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolCall is a parsed invocation request, consumed by Dispatcher.Apply.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ChatResponse is the provider-agnostic result of one chat call.
type ChatResponse struct {
	Content      string
	ToolCalls    []RawToolCall
	FinishReason string
}

// ChatModel is the model capability the orchestrator consults. Chat sends the
// assembled messages together with the exposed tool definitions; transport
// failures (network, auth, rate limit) are the error return. ExtractCalls
// parses the tool calls of a response into dispatchable form.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*ChatResponse, error)
	ExtractCalls(resp *ChatResponse) []ToolCall
}

// ParseToolCalls decodes the raw tool calls of a response, dropping calls
// whose argument payload is not a JSON object. Adapters without
// provider-specific call formats can delegate ExtractCalls to it.
func ParseToolCalls(resp *ChatResponse) []ToolCall {
	if resp == nil || len(resp.ToolCalls) == 0 {
		return nil
	}
	calls := make([]ToolCall, 0, len(resp.ToolCalls))
	for _, rc := range resp.ToolCalls {
		args := map[string]any{}
		if len(rc.Arguments) > 0 {
			if err := json.Unmarshal(rc.Arguments, &args); err != nil {
				continue
			}
		}
		calls = append(calls, ToolCall{ID: rc.ID, Name: rc.Name, Arguments: args})
	}
	return calls
}
