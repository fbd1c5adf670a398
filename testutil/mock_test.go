package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/stateagent"
	"github.com/skosovsky/stateagent/testutil"
)

func TestMockModel_Script(t *testing.T) {
	t.Parallel()
	m := &testutil.MockModel{
		Responses: []*stateagent.ChatResponse{
			testutil.Respond("first", testutil.Call(stateagent.ToolGetState, nil)),
		},
		Errs: []error{nil, errors.New("down")},
	}

	resp, err := m.Chat(context.Background(), []stateagent.Message{{Role: stateagent.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)
	require.Len(t, m.ExtractCalls(resp), 1)

	_, err = m.Chat(context.Background(), nil, nil)
	require.Error(t, err)

	resp, err = m.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Mock response", resp.Content, "exhausted script falls back to plain text")
	assert.Equal(t, 3, m.Calls)
}

func TestCall_MarshalsArguments(t *testing.T) {
	t.Parallel()
	rc := testutil.Call(stateagent.ToolSetField, map[string]any{"field_name": "name", "value": "John"})
	assert.Equal(t, stateagent.ToolSetField, rc.Name)
	assert.JSONEq(t, `{"field_name":"name","value":"John"}`, string(rc.Arguments))

	empty := testutil.Call(stateagent.ToolValidateState, nil)
	assert.JSONEq(t, `{}`, string(empty.Arguments))
}
