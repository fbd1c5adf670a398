// Package stateagent provides a deterministic state + CRUD pattern for
// driving conversational data-collection agents on top of tool-calling LLMs.
//
// # Overview
//
// A Schema declares the fields to collect (required flag, description,
// validator, default, kind). A State holds the per-conversation values and
// enforces validation and type coercion on every write. A Dispatcher exposes
// exactly four CRUD tools to the model (set_field, validate_state,
// get_state, clear_state) and converts every failure into a structured
// ToolResult. The Agent ties them together: it renders the state into the
// prompt, sends the conversation to a ChatModel, applies the returned tool
// calls, fires hooks, and reports completeness independently of the model's
// own judgment.
//
// # Key concepts
//
//   - Single Source of Truth: one Schema drives the system prompt, the tool
//     definitions sent to the model, and the handling of incoming calls.
//   - Local recovery: validation, coercion, and unknown-field failures never
//     escape the Dispatcher; the model sees them as error results and can
//     self-correct. Only transport failures surface from Agent.ProcessTurn.
//   - Narrow missing rule: a required field is missing only when its value is
//     nil or the empty string. Numeric zero and boolean false are valid
//     collected values.
//
// See Schema, State, Dispatcher, and Agent for the core types, and
// NewOpenAIModel / testutil.MockModel for model capabilities.
//
// # Example
//
//	schema := stateagent.NewSchema().
//	    MustAdd("name", stateagent.Field{Required: true, Description: "Full name"}).
//	    MustAdd("email", stateagent.Field{Required: true, Description: "Email address", Validator: stateagent.Email()}).
//	    MustAdd("age", stateagent.Field{Description: "Age in years", Kind: stateagent.KindInt})
//	model, err := stateagent.NewOpenAIModel()
//	if err != nil { ... }
//	agent, err := stateagent.NewAgent(schema, model)
//	if err != nil { ... }
//	result, err := agent.ProcessTurn(ctx, "Hi, I'm John, john@example.com")
package stateagent
