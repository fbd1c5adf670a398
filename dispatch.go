package stateagent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names exposed to the model.
const (
	ToolSetField      = "set_field"
	ToolValidateState = "validate_state"
	ToolGetState      = "get_state"
	ToolClearState    = "clear_state"
)

// ToolDefinition describes one callable function to the model: name,
// description, and a JSON Schema parameter object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolResult is the structured outcome of one applied tool call, forwarded to
// the orchestrator, hooks, and UI. Error is set instead of the success-shaped
// fields when the call failed.
type ToolResult struct {
	Success       bool           `json:"success,omitempty"`
	Valid         *bool          `json:"valid,omitempty"`
	MissingFields []string       `json:"missing_fields,omitempty"`
	Message       string         `json:"message,omitempty"`
	State         map[string]any `json:"state,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Dispatcher translates model-issued tool calls into operations on a State.
// The four tool definitions are compiled once per schema. Apply never returns
// an error: every failure, panics included, is recovered into a ToolResult.
type Dispatcher struct {
	schema       *Schema
	definitions  []ToolDefinition
	setFieldArgs *jsonschema.Resolved
}

// NewDispatcher builds the dispatcher for schema, compiling the tool
// definitions and the argument validator for set_field.
func NewDispatcher(schema *Schema) (*Dispatcher, error) {
	if schema == nil || schema.Len() == 0 {
		return nil, fmt.Errorf("schema must declare at least one field")
	}
	defs, err := buildDefinitions(schema)
	if err != nil {
		return nil, fmt.Errorf("build tool definitions: %w", err)
	}
	// The compiled argument schema deliberately omits the field-name enum:
	// an unknown name must reach State.Set so the result carries the
	// unknown-field message instead of a generic enum violation. The value
	// slot is untyped here because providers may send native numbers and
	// booleans despite the string hint in the definition.
	resolved, err := (&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"field_name": {Type: "string"},
			"value":      {},
		},
		Required: []string{"field_name", "value"},
	}).Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("compile set_field arguments schema: %w", err)
	}
	return &Dispatcher{schema: schema, definitions: defs, setFieldArgs: resolved}, nil
}

// buildDefinitions renders the fixed CRUD tool set for schema. set_field
// advertises the declared field names as an enum.
func buildDefinitions(schema *Schema) ([]ToolDefinition, error) {
	enum := make([]any, 0, schema.Len())
	for _, name := range schema.Names() {
		enum = append(enum, name)
	}
	noArgs := func() *jsonschema.Schema {
		return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
	}
	specs := []struct {
		name, desc string
		params     *jsonschema.Schema
	}{
		{ToolSetField, "Set or update a field in the state", &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"field_name": {Type: "string", Enum: enum, Description: "Name of the field to set"},
				"value":      {Type: "string", Description: "Value to set for the field"},
			},
			Required: []string{"field_name", "value"},
		}},
		{ToolValidateState, "Check if the current state is complete and valid", noArgs()},
		{ToolGetState, "Get the current state snapshot", noArgs()},
		{ToolClearState, "Reset all fields to their default values", noArgs()},
	}
	defs := make([]ToolDefinition, 0, len(specs))
	for _, s := range specs {
		params, err := schemaToMap(s.params)
		if err != nil {
			return nil, err
		}
		defs = append(defs, ToolDefinition{Name: s.name, Description: s.desc, Parameters: params})
	}
	return defs, nil
}

// Definitions returns the tool definitions to expose to the model.
func (d *Dispatcher) Definitions() []ToolDefinition {
	return slices.Clone(d.definitions)
}

// Apply dispatches call against st and returns a structured result. Failures
// of every class (unknown tool, missing argument, unknown field, validation,
// coercion, panics) are recovered into the result and never propagate.
func (d *Dispatcher) Apply(call ToolCall, st *State) (result ToolResult) {
	defer func() {
		if p := recover(); p != nil {
			result = ToolResult{Error: fmt.Sprintf("Tool execution failed: %v", p)}
		}
	}()

	switch call.Name {
	case ToolSetField:
		return d.applySetField(call, st)

	case ToolValidateState:
		missing := st.Validate()
		if len(missing) > 0 {
			return ToolResult{
				Valid:         boolPtr(false),
				MissingFields: missing,
				Message:       "Missing required fields: " + strings.Join(missing, ", "),
			}
		}
		return ToolResult{
			Valid:   boolPtr(true),
			Message: "State is complete and valid",
			State:   st.Snapshot(),
		}

	case ToolGetState:
		return ToolResult{State: st.Snapshot(), Message: "Current state retrieved"}

	case ToolClearState:
		st.Clear()
		return ToolResult{Success: true, Message: "State cleared", State: st.Snapshot()}

	default:
		return ToolResult{Error: fmt.Sprintf("Unknown function: %s", call.Name)}
	}
}

func (d *Dispatcher) applySetField(call ToolCall, st *State) ToolResult {
	name, _ := call.Arguments["field_name"].(string)
	if name == "" {
		return ToolResult{Error: "field_name is required"}
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := d.setFieldArgs.Validate(args); err != nil {
		return ToolResult{Error: fmt.Sprintf("invalid arguments: %s", err)}
	}
	value := call.Arguments["value"]
	if err := st.Set(name, value); err != nil {
		return ToolResult{Error: err.Error()}
	}
	return ToolResult{
		Success: true,
		Message: fmt.Sprintf("Set %s = %v", name, value),
		State:   st.Snapshot(),
	}
}

func boolPtr(b bool) *bool { return &b }
