package stateagent

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// State is the mutable per-conversation record of collected field values.
// Each slot starts at its descriptor's default and is mutated only through
// Set and Clear. One State serves one conversation; it is not safe for
// concurrent use.
type State struct {
	schema *Schema
	values map[string]any
}

// NewState creates a State with every slot at its descriptor default (nil
// when none is declared).
func NewState(schema *Schema) *State {
	st := &State{schema: schema, values: make(map[string]any, schema.Len())}
	for _, name := range schema.names {
		st.values[name] = schema.fields[name].Default
	}
	return st
}

// Schema returns the owning schema.
func (st *State) Schema() *Schema { return st.schema }

// Set validates, coerces, and stores raw under name. An unknown name or a
// validator rejection leaves every slot untouched. Coercion applies only to
// string sources: integer and number kinds are parsed, boolean kind is a
// case-insensitive membership test against true/1/yes/on.
func (st *State) Set(name string, raw any) error {
	f, ok := st.schema.fields[name]
	if !ok {
		return &FieldError{Field: name, Reason: "does not exist", Err: ErrUnknownField}
	}
	value := raw
	if f.Validator != nil {
		v, err := f.Validator(value)
		if err != nil {
			return &FieldError{Field: name, Reason: err.Error(), Err: ErrValidation}
		}
		value = v
	}
	value, err := coerce(name, value, f.Kind)
	if err != nil {
		return err
	}
	st.values[name] = value
	return nil
}

// coerce converts string sources to the declared kind. Non-string values are
// stored as the validator produced them, so numeric zero and boolean false
// survive untouched.
func coerce(name string, value any, kind Kind) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case KindInt:
		if s, ok := value.(string); ok {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, &CoercionError{Field: name, Value: value, Kind: kind}
			}
			return n, nil
		}
	case KindFloat:
		switch v := value.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, &CoercionError{Field: name, Value: value, Kind: kind}
			}
			return f, nil
		case int:
			return float64(v), nil
		}
	case KindBool:
		if s, ok := value.(string); ok {
			switch strings.ToLower(s) {
			case "true", "1", "yes", "on":
				return true, nil
			default:
				return false, nil
			}
		}
	}
	return value, nil
}

// Validate returns the names of required fields whose current value is
// missing, in declared order. A value is missing only when it is nil or the
// empty string; zero and false count as present. Conditional requirements
// registered with Schema.RequireWhen are evaluated against a fresh snapshot
// and appended. The result is recomputed on every call.
func (st *State) Validate() []string {
	missing := make([]string, 0)
	for _, name := range st.schema.names {
		if st.schema.fields[name].Required && isEmpty(st.values[name]) {
			missing = append(missing, name)
		}
	}
	if len(st.schema.rules) > 0 {
		snap := st.Snapshot()
		for _, rule := range st.schema.rules {
			if isEmpty(st.values[rule.field]) && rule.when(snap) && !slices.Contains(missing, rule.field) {
				missing = append(missing, rule.field)
			}
		}
	}
	return missing
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

// Snapshot returns a copy of every field value. Declared order is available
// from Schema.Names.
func (st *State) Snapshot() map[string]any {
	return maps.Clone(st.values)
}

// Clear resets every slot to its descriptor default.
func (st *State) Clear() {
	for _, name := range st.schema.names {
		st.values[name] = st.schema.fields[name].Default
	}
}

// Describe returns the descriptor for name, or false when unknown.
func (st *State) Describe(name string) (Field, bool) {
	return st.schema.Describe(name)
}

// Get returns the current value of name, or false when the name is not
// declared.
func (st *State) Get(name string) (any, bool) {
	v, ok := st.values[name]
	return v, ok
}

// Summary renders one line per field in declared order with a status marker:
// ✓ filled required, ✗ missing required, ○ optional. Empty slots display as
// "(empty)".
func (st *State) Summary() string {
	var b strings.Builder
	for i, name := range st.schema.names {
		f := st.schema.fields[name]
		v := st.values[name]
		marker := "○"
		if f.Required {
			if isEmpty(v) {
				marker = "✗"
			} else {
				marker = "✓"
			}
		}
		display := "(empty)"
		if !isEmpty(v) {
			display = fmt.Sprint(v)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s: %s", marker, name, display)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (st *State) String() string {
	return "State:\n" + st.Summary()
}
