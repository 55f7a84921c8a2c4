package flow

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/session"
)

// RenderFunc is the body of a Func node.
type RenderFunc func(ctx context.Context, st *session.State) (*session.State, error)

// Func adapts a plain function into a template node. The function runs under
// the full render discipline: a frame is pushed around it, hooks fire before
// and after, a pending jump wins before it runs, and any signal error it
// returns unwinds exactly like one raised by a built-in node.
type Func struct {
	Base
	fn RenderFunc
}

// NewFunc creates a function node.
func NewFunc(id string, fn RenderFunc, options ...Option) *Func {
	return &Func{Base: NewBase(id, options...), fn: fn}
}

// Validate implements Validator.
func (f *Func) Validate() error {
	if f.fn == nil {
		return fmt.Errorf("%w: func %q has no function", ErrConfig, f.id)
	}
	return nil
}

// Render implements Template.
func (f *Func) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return f.Scoped(ctx, st, f, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		if f.fn == nil {
			return st, fmt.Errorf("%w: func %q has no function", ErrConfig, f.id)
		}
		return f.fn(ctx, st)
	})
}
