package flow

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/session"
)

// TerminateID is the reserved identifier of the terminate singleton. The
// runner rejects any other node that claims it.
const TerminateID = "terminate"

// Goto raises a jump signal to the template named by target. Frames unwind
// as the signal travels up; the runner resolves the target against its
// registry and restarts the conversation there.
type Goto struct {
	Base
	target string
}

// NewGoto creates a jump node.
func NewGoto(id, target string) *Goto {
	return &Goto{Base: NewBase(id), target: target}
}

// Target returns the id this node jumps to. The runner checks it against
// the registry when the tree is validated.
func (g *Goto) Target() string { return g.target }

// Validate implements Validator.
func (g *Goto) Validate() error {
	if g.target == "" {
		return fmt.Errorf("%w: goto %q has no target", ErrConfig, g.id)
	}
	return nil
}

// Render implements Template.
func (g *Goto) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return g.Scoped(ctx, st, g, func(_ context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		return st, JumpSignal{Target: g.target}
	})
}

// Break raises a break signal, caught by the nearest enclosing Sequence or
// Loop. A break with no enclosing container reaches the runner and is
// reported as a configuration error.
type Break struct {
	Base
}

// NewBreak creates a break node.
func NewBreak(id string) *Break {
	return &Break{Base: NewBase(id)}
}

// Render implements Template.
func (b *Break) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return b.Scoped(ctx, st, b, func(_ context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		return st, BreakSignal{}
	})
}

// terminateNode is the shared terminate instance. It carries no hooks and
// no per-render state, so a single value serves every tree.
type terminateNode struct{}

var sharedTerminate Template = terminateNode{}

// Terminate returns the terminate node. Rendering it ends the conversation;
// only the runner catches the signal.
func Terminate() Template { return sharedTerminate }

// ID implements Template.
func (terminateNode) ID() string { return TerminateID }

// Children implements Template.
func (terminateNode) Children() []Template { return nil }

// NewFrame implements Template.
func (terminateNode) NewFrame(*session.State) session.Frame {
	return &session.BaseFrame{Template: TerminateID}
}

// Render implements Template. Even here the frame discipline holds: the
// frame is pushed and released around raising the signal, and a pending
// jump scheduled by an earlier hook still wins.
func (t terminateNode) Render(_ context.Context, st *session.State) (*session.State, error) {
	stack := st.Stack()
	depth := stack.Depth()
	stack.Push(t.NewFrame(st))
	defer func() { stack.Release(depth) }()

	if target, ok := st.TakeJump(); ok {
		return st, JumpSignal{Target: target}
	}
	return st, TerminateSignal{}
}
