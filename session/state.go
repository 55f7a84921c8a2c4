package session

import (
	"context"
	"iter"
	"slices"

	"github.com/fogfish/opts"
	"github.com/google/uuid"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/pkg/uuidx"
	"github.com/casualjim/loom/types"
)

// State is the conversation as one run sees it: an append-only message log,
// the variable environment, the frame stack and the dispatcher. Exactly one
// run owns a State at a time.
type State struct {
	id      uuid.UUID
	msgs    []messages.Message
	initLen int
	vars    types.ContextVars
	stack   *Stack
	jump    string
	disp    *Dispatcher
}

var (
	// WithVars seeds the variable environment.
	WithVars = opts.ForName[State, types.ContextVars]("vars")
	// WithDispatcher wires the collaborator bundle.
	WithDispatcher = opts.ForName[State, *Dispatcher]("disp")
)

// WithMessages seeds the transcript. Seeded messages count as inherited, not
// emitted, so they are invisible to Emitted.
func WithMessages(msg messages.Message, extra ...messages.Message) opts.Option[State] {
	return opts.Type[State](func(s *State) error {
		s.msgs = append(s.msgs, msg)
		s.msgs = append(s.msgs, extra...)
		return nil
	})
}

// New creates a conversation state. Panics when an option fails; options
// here only assign fields, so a failure is a programming error.
func New(options ...opts.Option[State]) *State {
	st := State{
		id:    uuidx.New(),
		vars:  types.ContextVars{},
		stack: &Stack{},
	}
	if err := opts.Apply(&st, options); err != nil {
		panic(err)
	}
	st.initLen = len(st.msgs)
	return &st
}

// ID returns the state's identity. Derived states get fresh IDs.
func (s *State) ID() uuid.UUID { return s.id }

// Len reports the total number of messages in the log.
func (s *State) Len() int { return len(s.msgs) }

// TurnLen reports how many messages this run added beyond the inherited
// prefix. This is the slice a squash strategy gets to see.
func (s *State) TurnLen() int { return len(s.msgs) - s.initLen }

// Messages returns a copy of the full log.
func (s *State) Messages() []messages.Message {
	return slices.Clone(s.msgs)
}

// MessagesIter iterates the log without copying it. The caller must not
// append to the state while iterating.
func (s *State) MessagesIter() iter.Seq[messages.Message] {
	return func(yield func(messages.Message) bool) {
		for _, msg := range s.msgs {
			if !yield(msg) {
				return
			}
		}
	}
}

// LastMessage returns the newest log entry, when one exists.
func (s *State) LastMessage() (messages.Message, bool) {
	if len(s.msgs) == 0 {
		return messages.Message{}, false
	}
	return s.msgs[len(s.msgs)-1], true
}

// Emitted returns a copy of the messages this run produced itself,
// excluding the inherited prefix.
func (s *State) Emitted() []messages.Message {
	return slices.Clone(s.msgs[s.initLen:])
}

// Append records messages in the log without forwarding them. Subroutine
// merges use this: the nested run already forwarded its messages live.
func (s *State) Append(msgs ...messages.Message) {
	s.msgs = append(s.msgs, msgs...)
}

// Emit records msg and forwards it to the sink in one step. This is the
// path every message producing template takes.
func (s *State) Emit(ctx context.Context, msg messages.Message) error {
	s.msgs = append(s.msgs, msg)
	return s.disp.Forward(ctx, msg)
}

// Vars returns the live variable environment.
func (s *State) Vars() types.ContextVars { return s.vars }

// SetVars replaces the variable environment wholesale.
func (s *State) SetVars(vars types.ContextVars) {
	if vars == nil {
		vars = types.ContextVars{}
	}
	s.vars = vars
}

// SetJump records a pending control transfer to the template with the given
// id. The engine consumes it at the next render boundary.
func (s *State) SetJump(target string) { s.jump = target }

// PendingJump returns the pending transfer target without consuming it.
func (s *State) PendingJump() string { return s.jump }

// TakeJump consumes and returns the pending transfer target.
func (s *State) TakeJump() (string, bool) {
	if s.jump == "" {
		return "", false
	}
	target := s.jump
	s.jump = ""
	return target, true
}

// Stack returns the run's frame stack.
func (s *State) Stack() *Stack { return s.stack }

// Dispatcher returns the collaborator bundle, which may be nil on detached
// states.
func (s *State) Dispatcher() *Dispatcher { return s.disp }

// AttachDispatcher wires the collaborator bundle.
func (s *State) AttachDispatcher(d *Dispatcher) { s.disp = d }

// Derive creates the state for a nested run seeded with the given messages.
// The seed counts as inherited, the variables are deep copied, the stack is
// fresh and the dispatcher is shared until the nested run attaches its own.
func (s *State) Derive(seed []messages.Message) *State {
	return &State{
		id:      uuidx.New(),
		msgs:    seed,
		initLen: len(seed),
		vars:    s.vars.Clone(),
		stack:   &Stack{},
		disp:    s.disp,
	}
}

// Clone returns a copy that owns its data but shares execution bookkeeping.
// Messages and variables are deep copied; the stack and dispatcher pointers
// are shared so a hook can swap the state mid-render without orphaning the
// frames already pushed.
func (s *State) Clone() *State {
	return &State{
		id:      s.id,
		msgs:    messages.CloneAll(s.msgs),
		initLen: s.initLen,
		vars:    s.vars.Clone(),
		stack:   s.stack,
		jump:    s.jump,
		disp:    s.disp,
	}
}
