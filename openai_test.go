package stateagent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIModel_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAIModel()
	require.Error(t, err)

	m, err := NewOpenAIModel(WithAPIKey("sk-test"))
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestOpenAIModel_Chat(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "Saving that now.",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {
							"name": "set_field",
							"arguments": "{\"field_name\":\"name\",\"value\":\"John\"}"
						}
					}]
				}
			}]
		}`))
	}))
	defer server.Close()

	client := &http.Client{}
	defer client.CloseIdleConnections()

	model, err := NewOpenAIModel(
		WithAPIKey("sk-test"),
		WithBaseURL(server.URL+"/v1"),
		WithModel("gpt-4o-mini"),
		WithTemperature(0.1),
		WithHTTPClient(client),
	)
	require.NoError(t, err)

	dispatcher, err := NewDispatcher(personSchema())
	require.NoError(t, err)

	resp, err := model.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "collect data"},
		{Role: RoleUser, Content: "I'm John"},
	}, dispatcher.Definitions())
	require.NoError(t, err)

	assert.Equal(t, "Saving that now.", resp.Content)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, ToolSetField, resp.ToolCalls[0].Name)

	calls := model.ExtractCalls(resp)
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"field_name": "name", "value": "John"}, calls[0].Arguments)

	// Request carried the model, messages, and the four tool definitions.
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	tools, ok := gotBody["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 4)
	assert.Equal(t, "auto", gotBody["tool_choice"])
	first := tools[0].(map[string]any)
	assert.Equal(t, "function", first["type"])
	fn := first["function"].(map[string]any)
	assert.Equal(t, ToolSetField, fn["name"])
}

func TestOpenAIModel_Chat_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &http.Client{}
	defer client.CloseIdleConnections()

	model, err := NewOpenAIModel(
		WithAPIKey("sk-test"),
		WithBaseURL(server.URL+"/v1"),
		WithHTTPClient(client),
	)
	require.NoError(t, err)

	_, err = model.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}

func TestToOpenAIMessages(t *testing.T) {
	t.Parallel()
	out := toOpenAIMessages([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "b", out[1].Content)
}
