package stateagent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Hooks are optional callbacks fired by the agent while applying tool calls.
// OnFieldSet runs after every successful set_field application. OnSubmit runs
// when validate_state first reports completeness within a turn; it may fire
// again on later turns, so callers wanting one-shot semantics must guard
// themselves. Nil callbacks are skipped.
type Hooks struct {
	OnFieldSet func(st *State, field string)
	OnSubmit   func(st *State)
}

// TurnResult reports the outcome of one processed turn.
type TurnResult struct {
	Message       string
	ToolResults   []ToolResult
	State         map[string]any
	MissingFields []string
	Complete      bool
}

// agentOptions hold optional agent settings.
type agentOptions struct {
	systemPrompt string
	hooks        Hooks
	maxTurns     int
}

// AgentOption configures an Agent (e.g. WithSystemPrompt, WithHooks).
type AgentOption func(*agentOptions)

// WithSystemPrompt overrides the prompt generated by DefaultSystemPrompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(o *agentOptions) {
		o.systemPrompt = prompt
	}
}

// WithHooks sets the lifecycle callbacks.
func WithHooks(h Hooks) AgentOption {
	return func(o *agentOptions) {
		o.hooks = h
	}
}

// WithMaxTurns sets the RunChat user-turn limit. Default is 20.
func WithMaxTurns(n int) AgentOption {
	return func(o *agentOptions) {
		o.maxTurns = n
	}
}

// Agent drives structured data collection over a ChatModel. It owns exactly
// one State and one conversation history; run concurrent conversations with
// independent Agent instances. Turns execute synchronously, one at a time.
type Agent struct {
	schema     *Schema
	model      ChatModel
	dispatcher *Dispatcher
	state      *State
	history    []Message
	opts       agentOptions
}

// NewAgent creates an agent for schema backed by model.
func NewAgent(schema *Schema, model ChatModel, opts ...AgentOption) (*Agent, error) {
	if model == nil {
		return nil, errors.New("model must not be nil")
	}
	o := agentOptions{maxTurns: 20}
	for _, opt := range opts {
		opt(&o)
	}
	dispatcher, err := NewDispatcher(schema)
	if err != nil {
		return nil, err
	}
	if o.systemPrompt == "" {
		o.systemPrompt = DefaultSystemPrompt(schema)
	}
	return &Agent{
		schema:     schema,
		model:      model,
		dispatcher: dispatcher,
		state:      NewState(schema),
		opts:       o,
	}, nil
}

// State returns the live state instance.
func (a *Agent) State() *State { return a.state }

// History returns a copy of the conversation history.
func (a *Agent) History() []Message { return slices.Clone(a.history) }

// buildMessages assembles the model input: system prompt, prior history, the
// rendered state summary, and the user message when non-empty.
func (a *Agent) buildMessages(userInput string) []Message {
	msgs := make([]Message, 0, len(a.history)+3)
	msgs = append(msgs, Message{Role: RoleSystem, Content: a.opts.systemPrompt})
	msgs = append(msgs, a.history...)
	msgs = append(msgs, Message{
		Role: RoleSystem,
		Content: "Current state:\n" + a.state.Summary() +
			"\n\nAfter each user message, you MUST check what information is still missing using validate_state() and ask for it.",
	})
	if strings.TrimSpace(userInput) != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: userInput})
	}
	return msgs
}

// ProcessTurn runs one round: consult the model, apply its tool calls in
// order, fire hooks, and report completeness. A transport failure is returned
// as an error with history and state untouched, so the caller may retry the
// same turn. Tool applications within a turn commit independently; a failed
// call does not roll back earlier ones.
func (a *Agent) ProcessTurn(ctx context.Context, userInput string) (*TurnResult, error) {
	messages := a.buildMessages(userInput)

	resp, err := a.model.Chat(ctx, messages, a.dispatcher.Definitions())
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	calls := a.model.ExtractCalls(resp)
	results := make([]ToolResult, 0, len(calls))
	submitted := false
	for _, call := range calls {
		result := a.dispatcher.Apply(call, a.state)
		results = append(results, result)

		switch call.Name {
		case ToolSetField:
			if result.Error == "" && a.opts.hooks.OnFieldSet != nil {
				if name, ok := call.Arguments["field_name"].(string); ok {
					a.opts.hooks.OnFieldSet(a.state, name)
				}
			}
		case ToolValidateState:
			if !submitted && result.Valid != nil && *result.Valid && a.opts.hooks.OnSubmit != nil {
				a.opts.hooks.OnSubmit(a.state)
				submitted = true
			}
		}
	}

	a.history = append(a.history, Message{Role: RoleUser, Content: userInput})
	if resp.Content != "" {
		a.history = append(a.history, Message{Role: RoleAssistant, Content: resp.Content})
	}

	missing := a.state.Validate()
	complete := len(missing) == 0

	// A text-only reply must not silently drop the missing-field signal:
	// apply validate_state on the model's behalf.
	if len(calls) == 0 && resp.Content != "" && !complete {
		results = append(results, a.dispatcher.Apply(ToolCall{Name: ToolValidateState}, a.state))
	}

	return &TurnResult{
		Message:       resp.Content,
		ToolResults:   results,
		State:         a.state.Snapshot(),
		MissingFields: missing,
		Complete:      complete,
	}, nil
}

// Reset replaces the state instance and clears the conversation history.
func (a *Agent) Reset() {
	a.state = NewState(a.schema)
	a.history = nil
}

// RunChat runs an interactive session: an initial greeting turn with empty
// input, then up to the configured number of user turns read line by line
// from r. Turn errors are rendered and the loop continues; the session stops
// on completion, EOF, context cancellation, or the turn limit.
func (a *Agent) RunChat(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)

	initial, err := a.ProcessTurn(ctx, "")
	if err != nil {
		return err
	}
	if initial.Message != "" {
		fmt.Fprintf(w, "agent> %s\n", initial.Message)
	}

	for turn := 0; turn < a.opts.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(w, "you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		result, err := a.ProcessTurn(ctx, input)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}

		for _, tr := range result.ToolResults {
			if tr.Error != "" {
				fmt.Fprintf(w, "  ! %s\n", tr.Error)
			} else if tr.Message != "" {
				fmt.Fprintf(w, "  * %s\n", tr.Message)
			}
		}
		if result.Message != "" {
			fmt.Fprintf(w, "agent> %s\n", result.Message)
		} else if len(result.MissingFields) > 0 {
			fmt.Fprintf(w, "agent> I still need to collect: %s\n", strings.Join(result.MissingFields, ", "))
		}
		if result.Complete {
			fmt.Fprintf(w, "\nAll information collected.\n%s\n", a.state.Summary())
			return nil
		}
	}

	fmt.Fprintf(w, "\nReached maximum turns (%d)\n", a.opts.maxTurns)
	return nil
}
