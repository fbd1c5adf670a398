// Package testutil provides test helpers for stateagent (e.g. MockModel).
package testutil

import (
	"context"
	"encoding/json"

	"github.com/skosovsky/stateagent"
)

// MockModel is a scripted ChatModel for tests. Each Chat call consumes the
// next entry of Responses, or fails with the error at the same index of Errs
// when set. Once the script is exhausted Chat returns a plain text response.
type MockModel struct {
	Responses []*stateagent.ChatResponse
	Errs      []error

	// Calls counts Chat invocations; LastMessages and LastTools record the
	// most recent request for assertions.
	Calls        int
	LastMessages []stateagent.Message
	LastTools    []stateagent.ToolDefinition
}

// Chat returns the next scripted response or error.
func (m *MockModel) Chat(_ context.Context, messages []stateagent.Message, tools []stateagent.ToolDefinition) (*stateagent.ChatResponse, error) {
	i := m.Calls
	m.Calls++
	if i < len(m.Errs) && m.Errs[i] != nil {
		return nil, m.Errs[i]
	}
	m.LastMessages = messages
	m.LastTools = tools
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return &stateagent.ChatResponse{Content: "Mock response", FinishReason: "stop"}, nil
}

// ExtractCalls parses the response's tool calls.
func (m *MockModel) ExtractCalls(resp *stateagent.ChatResponse) []stateagent.ToolCall {
	return stateagent.ParseToolCalls(resp)
}

// Call builds a raw tool call with the given arguments marshaled to JSON.
// It panics on unmarshalable arguments; tests pass plain maps.
func Call(name string, args map[string]any) stateagent.RawToolCall {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		panic("testutil: marshal tool call arguments: " + err.Error())
	}
	return stateagent.RawToolCall{Name: name, Arguments: data}
}

// Respond builds a ChatResponse carrying content and the given tool calls.
func Respond(content string, calls ...stateagent.RawToolCall) *stateagent.ChatResponse {
	return &stateagent.ChatResponse{Content: content, ToolCalls: calls, FinishReason: "tool_calls"}
}

// Ensure MockModel implements ChatModel.
var _ stateagent.ChatModel = (*MockModel)(nil)
