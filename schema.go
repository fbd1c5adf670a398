package stateagent

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// conditionalRule marks a field required whenever its condition holds for the
// current snapshot. Evaluated by State.Validate.
type conditionalRule struct {
	field string
	when  func(snapshot map[string]any) bool
}

// Schema is an ordered mapping from field name to Field descriptor. Build it
// once at definition time with Add or MustAdd and treat it as read-only
// afterwards; a Schema may then be shared by any number of agents.
type Schema struct {
	names  []string
	fields map[string]Field
	rules  []conditionalRule
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{fields: make(map[string]Field)}
}

// Add registers a field descriptor under name, preserving declaration order.
// Empty and duplicate names are rejected.
func (s *Schema) Add(name string, f Field) error {
	if name == "" {
		return fmt.Errorf("field name must not be empty")
	}
	if _, ok := s.fields[name]; ok {
		return fmt.Errorf("field '%s' already declared", name)
	}
	s.names = append(s.names, name)
	s.fields[name] = f
	return nil
}

// MustAdd is Add that panics on error, for chained package-level schema
// declarations.
func (s *Schema) MustAdd(name string, f Field) *Schema {
	if err := s.Add(name, f); err != nil {
		panic("stateagent: " + err.Error())
	}
	return s
}

// RequireWhen registers a conditional requirement: State.Validate reports
// field as missing when it is empty and when(snapshot) holds. field must be
// declared first. The condition must be a pure function of the snapshot.
func (s *Schema) RequireWhen(field string, when func(snapshot map[string]any) bool) error {
	if _, ok := s.fields[field]; !ok {
		return fmt.Errorf("field '%s' not declared", field)
	}
	if when == nil {
		return fmt.Errorf("condition must not be nil")
	}
	s.rules = append(s.rules, conditionalRule{field: field, when: when})
	return nil
}

// MustRequireWhen is RequireWhen that panics on error.
func (s *Schema) MustRequireWhen(field string, when func(snapshot map[string]any) bool) *Schema {
	if err := s.RequireWhen(field, when); err != nil {
		panic("stateagent: " + err.Error())
	}
	return s
}

// Names returns the field names in declared order.
func (s *Schema) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.names)
}

// Describe returns the descriptor for name, or false when the name is not
// declared.
func (s *Schema) Describe(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Required returns the unconditionally required field names in declared order.
func (s *Schema) Required() []string {
	req := make([]string, 0, len(s.names))
	for _, name := range s.names {
		if s.fields[name].Required {
			req = append(req, name)
		}
	}
	return req
}

// JSONSchema returns the JSON Schema of the full state object: one property
// per declared field with its kind and description, and a required list.
func (s *Schema) JSONSchema() (map[string]any, error) {
	props := make(map[string]*jsonschema.Schema, len(s.names))
	for _, name := range s.names {
		f := s.fields[name]
		props[name] = &jsonschema.Schema{Type: f.Kind.String(), Description: f.Description}
	}
	root := &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   s.Required(),
	}
	return schemaToMap(root)
}

// schemaToMap renders a jsonschema.Schema as the plain map LLM providers
// expect in tool definitions.
func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
