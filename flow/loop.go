package flow

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/session"
)

// Loop renders its children round-robin until its exit predicate answers
// true, an optional pass ceiling is reached, or a child breaks out. Progress
// lives in the loop frame as one cumulative counter, so the current child
// and the completed pass count are always derivable from a single number.
type Loop struct {
	Base
	children  []Template
	until     Predicate
	maxPasses int
}

// NewLoop creates a loop over the given children.
func NewLoop(id string, children ...Template) *Loop {
	return &Loop{Base: NewBase(id), children: children}
}

// With appends hook options after construction, returning the loop.
func (l *Loop) With(options ...Option) *Loop {
	for _, opt := range options {
		opt(&l.Base)
	}
	return l
}

// Until sets the exit predicate, evaluated after each child completes. Never
// mid-child: a child render is atomic from the loop's point of view.
func (l *Loop) Until(p Predicate) *Loop {
	l.until = p
	return l
}

// MaxPasses caps the number of completed passes over the children. Zero
// means no ceiling. The cap is checked when the cursor wraps, so every pass
// that starts is allowed to finish.
func (l *Loop) MaxPasses(n int) *Loop {
	l.maxPasses = n
	return l
}

// Children implements Template.
func (l *Loop) Children() []Template { return l.children }

// NewFrame implements Template.
func (l *Loop) NewFrame(*session.State) session.Frame {
	return &session.LoopFrame{
		BaseFrame: session.BaseFrame{Template: l.id},
		Children:  len(l.children),
	}
}

// Validate implements Validator.
func (l *Loop) Validate() error {
	if len(l.children) == 0 {
		return fmt.Errorf("%w: loop %q has no children", ErrConfig, l.id)
	}
	if l.until == nil && l.maxPasses <= 0 {
		return fmt.Errorf("%w: loop %q can never exit, set Until or MaxPasses", ErrConfig, l.id)
	}
	for i, child := range l.children {
		if child == nil {
			return fmt.Errorf("%w: loop %q has a nil child at position %d", ErrConfig, l.id, i)
		}
	}
	return nil
}

// Render implements Template.
func (l *Loop) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return l.Scoped(ctx, st, l, func(ctx context.Context, st *session.State, f session.Frame) (*session.State, error) {
		frame := f.(*session.LoopFrame)
		if len(l.children) == 0 {
			return st, fmt.Errorf("%w: loop %q has no children", ErrConfig, l.id)
		}
		var err error
		for {
			child := l.children[frame.Index()]
			if st, err = child.Render(ctx, st); err != nil {
				if IsBreak(err) {
					return st, nil
				}
				return st, err
			}
			frame.Count++

			if l.until != nil {
				done, perr := l.until.Evaluate(ctx, st)
				if perr != nil {
					return st, perr
				}
				if done {
					return st, nil
				}
			}
			if l.maxPasses > 0 && frame.Index() == 0 && frame.Passes() >= l.maxPasses {
				return st, nil
			}
		}
	})
}
