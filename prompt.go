package stateagent

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt renders the standard data-collection prompt for schema:
// the field list with required/optional markers and descriptions, the
// available tools, and the collection guidelines. It is a pure function of
// the schema and may be called any number of times.
func DefaultSystemPrompt(schema *Schema) string {
	var fields []string
	for _, name := range schema.Names() {
		f, _ := schema.Describe(name)
		required := "optional"
		if f.Required {
			required = "required"
		}
		fields = append(fields, fmt.Sprintf("- %s (%s): %s", name, required, f.Description))
	}
	fieldsText := "No field descriptions available."
	if len(fields) > 0 {
		fieldsText = strings.Join(fields, "\n")
	}

	return fmt.Sprintf(`You are a helpful assistant that collects structured information through conversation.

Your goal is to gather the following information:
%s

You have access to these tools:
- set_field(field_name, value): Update a field with a value
- validate_state(): Check if all required fields are complete
- get_state(): View current state
- clear_state(): Reset all fields

Guidelines:
1. Be conversational and friendly
2. Ask for missing required fields one at a time
3. Use set_field() to store information as you collect it
4. Use validate_state() to check completeness
5. Confirm with the user before finalizing
6. Only ask for information that isn't already provided

Start by greeting the user and explaining what information you need to collect.`, fieldsText)
}
