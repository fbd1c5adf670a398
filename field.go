package stateagent

// Kind is the declared value type of a schema field. It selects the string
// coercion applied by State.Set after the field's validator has run, and the
// JSON Schema type advertised for the field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// String returns the JSON Schema type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "string"
	}
}

// Field describes one schema field: whether it must be collected, the human
// description shown to the model, an optional validator, the value a fresh
// (or cleared) slot holds, and the declared value kind.
// Immutable once added to a Schema.
type Field struct {
	Required    bool
	Description string
	Validator   Validator
	Default     any
	Kind        Kind
}
