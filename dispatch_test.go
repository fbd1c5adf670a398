package stateagent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T, schema *Schema) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(schema)
	require.NoError(t, err)
	return d
}

func TestNewDispatcher_EmptySchema(t *testing.T) {
	t.Parallel()
	_, err := NewDispatcher(nil)
	require.Error(t, err)
	_, err = NewDispatcher(NewSchema())
	require.Error(t, err)
}

func TestDispatcher_Definitions(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())

	defs := d.Definitions()
	require.Len(t, defs, 4)

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		require.NotEmpty(t, def.Description)
		require.Equal(t, "object", def.Parameters["type"])
	}
	assert.Equal(t, []string{ToolSetField, ToolValidateState, ToolGetState, ToolClearState}, names)

	// set_field advertises the declared field names as an enum.
	setField := defs[0]
	props := setField.Parameters["properties"].(map[string]any)
	fieldName := props["field_name"].(map[string]any)
	assert.ElementsMatch(t, []any{"name", "email", "age", "notes"}, fieldName["enum"])
	required, ok := setField.Parameters["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"field_name", "value"}, required)
}

func TestDispatcher_SetField(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())
	st := NewState(personSchema())

	result := d.Apply(ToolCall{
		Name:      ToolSetField,
		Arguments: map[string]any{"field_name": "name", "value": "John"},
	}, st)

	assert.Empty(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, "Set name = John", result.Message)
	require.NotNil(t, result.State)
	assert.Equal(t, "John", result.State["name"])
}

func TestDispatcher_SetField_Errors(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())

	tests := []struct {
		name    string
		args    map[string]any
		errPart string
	}{
		{"missing field_name", map[string]any{"value": "x"}, "field_name is required"},
		{"nil arguments", nil, "field_name is required"},
		{"missing value", map[string]any{"field_name": "name"}, "invalid arguments"},
		{"unknown field", map[string]any{"field_name": "ghost", "value": "x"}, "does not exist"},
		{"validator rejection", map[string]any{"field_name": "email", "value": "nope"}, "invalid email format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState(personSchema())
			before := st.Snapshot()
			result := d.Apply(ToolCall{Name: ToolSetField, Arguments: tt.args}, st)
			require.NotEmpty(t, result.Error)
			assert.Contains(t, result.Error, tt.errPart)
			assert.False(t, result.Success)
			assert.Equal(t, before, st.Snapshot(), "failed call must not mutate state")
		})
	}
}

func TestDispatcher_SetField_CoercionError(t *testing.T) {
	t.Parallel()
	schema := NewSchema().MustAdd("age", Field{Required: true, Kind: KindInt})
	d := newDispatcher(t, schema)
	st := NewState(schema)

	result := d.Apply(ToolCall{
		Name:      ToolSetField,
		Arguments: map[string]any{"field_name": "age", "value": "twenty"},
	}, st)
	require.NotEmpty(t, result.Error)
	assert.Contains(t, result.Error, "cannot convert")
}

func TestDispatcher_ValidateState(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())
	st := NewState(personSchema())

	result := d.Apply(ToolCall{Name: ToolValidateState}, st)
	require.NotNil(t, result.Valid)
	assert.False(t, *result.Valid)
	assert.Equal(t, []string{"name", "email"}, result.MissingFields)
	assert.Equal(t, "Missing required fields: name, email", result.Message)
	assert.Nil(t, result.State)

	require.NoError(t, st.Set("name", "John"))
	require.NoError(t, st.Set("email", "john@example.com"))

	result = d.Apply(ToolCall{Name: ToolValidateState}, st)
	require.NotNil(t, result.Valid)
	assert.True(t, *result.Valid)
	assert.Equal(t, "State is complete and valid", result.Message)
	assert.Empty(t, result.MissingFields)
	assert.Equal(t, st.Snapshot(), result.State)
}

func TestDispatcher_ValidateState_Idempotent(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())
	st := NewState(personSchema())

	first := d.Apply(ToolCall{Name: ToolValidateState}, st)
	second := d.Apply(ToolCall{Name: ToolValidateState}, st)
	assert.Equal(t, first, second)
}

func TestDispatcher_GetState(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())
	st := NewState(personSchema())
	require.NoError(t, st.Set("name", "John"))

	result := d.Apply(ToolCall{Name: ToolGetState}, st)
	assert.Empty(t, result.Error)
	assert.Equal(t, "Current state retrieved", result.Message)
	assert.Equal(t, st.Snapshot(), result.State)
}

func TestDispatcher_ClearState(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())
	st := NewState(personSchema())
	fresh := st.Snapshot()

	require.NoError(t, st.Set("name", "John"))
	require.NoError(t, st.Set("email", "john@example.com"))

	result := d.Apply(ToolCall{Name: ToolClearState}, st)
	assert.True(t, result.Success)
	assert.Equal(t, "State cleared", result.Message)
	assert.Equal(t, fresh, result.State)
	assert.Equal(t, fresh, st.Snapshot())
}

func TestDispatcher_UnknownTool(t *testing.T) {
	t.Parallel()
	d := newDispatcher(t, personSchema())
	st := NewState(personSchema())

	result := d.Apply(ToolCall{Name: "drop_tables"}, st)
	assert.Equal(t, "Unknown function: drop_tables", result.Error)
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	t.Parallel()
	schema := NewSchema().MustAdd("name", Field{
		Required: true,
		Validator: func(any) (any, error) {
			panic(fmt.Errorf("validator exploded"))
		},
	})
	d := newDispatcher(t, schema)
	st := NewState(schema)

	result := d.Apply(ToolCall{
		Name:      ToolSetField,
		Arguments: map[string]any{"field_name": "name", "value": "x"},
	}, st)
	require.NotEmpty(t, result.Error)
	assert.Contains(t, result.Error, "Tool execution failed: validator exploded")
}
