package session

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/casualjim/loom/messages"
)

// ModelSender produces the next assistant message for a conversation. The
// request carries the state for transcript and variable access plus any tool
// definitions the caller wants advertised. Implementations must not mutate
// the state.
type ModelSender interface {
	Send(ctx context.Context, req Request) (messages.Message, error)
}

// Request is the input to a single model call.
type Request struct {
	State *State
	Tools []ToolSpec
}

// ToolSpec describes one callable tool in a provider neutral shape. Schema
// holds the JSON schema of the tool's parameters.
type ToolSpec struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// Prompter collects input from the human driving the conversation. A nil
// prompter in the dispatcher means the run is non-interactive and templates
// asking for input fail.
type Prompter interface {
	Ask(ctx context.Context, st *State, prompt, def string) (string, error)
}

// Sink receives every emitted message in real time, in emission order. The
// runner is the canonical sink; it uses the callback to count messages
// against the run's ceiling and to fan the message out to hooks and brokers.
type Sink interface {
	Forward(ctx context.Context, msg messages.Message) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, msg messages.Message) error

// Forward implements Sink.
func (f SinkFunc) Forward(ctx context.Context, msg messages.Message) error {
	return f(ctx, msg)
}

// Dispatcher bundles the collaborators a render may call out to. Any entry
// may be nil; helpers on the dispatcher treat a nil collaborator as "not
// wired" and degrade accordingly.
type Dispatcher struct {
	Model ModelSender
	Input Prompter
	Sink  Sink
}

// Clone returns a copy of the bundle. The collaborators themselves are
// shared, which is the contract subroutine overrides rely on: replace one
// entry on the clone, keep the rest.
func (d *Dispatcher) Clone() *Dispatcher {
	if d == nil {
		return nil
	}
	dup := *d
	return &dup
}

// Forward hands msg to the sink, when one is wired. Safe on a nil
// dispatcher so detached states can still be used in tests.
func (d *Dispatcher) Forward(ctx context.Context, msg messages.Message) error {
	if d == nil || d.Sink == nil {
		return nil
	}
	return d.Sink.Forward(ctx, msg)
}
