package flow

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/session"
)

// Sequence renders its children in order. Its frame carries the cursor, so
// the position survives anything a child does to the state. A break signal
// raised inside a child ends the sequence early and is absorbed here.
type Sequence struct {
	Base
	children []Template
}

// NewSequence creates a sequence over the given children.
func NewSequence(id string, children ...Template) *Sequence {
	return &Sequence{Base: NewBase(id), children: children}
}

// With appends hook options after construction, returning the sequence.
func (s *Sequence) With(options ...Option) *Sequence {
	for _, opt := range options {
		opt(&s.Base)
	}
	return s
}

// Children implements Template.
func (s *Sequence) Children() []Template { return s.children }

// NewFrame implements Template.
func (s *Sequence) NewFrame(*session.State) session.Frame {
	return &session.CursorFrame{BaseFrame: session.BaseFrame{Template: s.id}}
}

// Validate implements Validator.
func (s *Sequence) Validate() error {
	for i, child := range s.children {
		if child == nil {
			return fmt.Errorf("%w: sequence %q has a nil child at position %d", ErrConfig, s.id, i)
		}
	}
	return nil
}

// Render implements Template.
func (s *Sequence) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return s.Scoped(ctx, st, s, func(ctx context.Context, st *session.State, f session.Frame) (*session.State, error) {
		frame := f.(*session.CursorFrame)
		var err error
		for frame.Cursor < len(s.children) {
			child := s.children[frame.Cursor]
			if st, err = child.Render(ctx, st); err != nil {
				if IsBreak(err) {
					return st, nil
				}
				return st, err
			}
			frame.Cursor++
		}
		return st, nil
	})
}
