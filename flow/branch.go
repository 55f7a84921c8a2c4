package flow

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/session"
)

// Branch evaluates a predicate and renders one of two children. The true
// side is mandatory; the false side is optional and a false outcome without
// one is a no-op.
type Branch struct {
	Base
	cond      Predicate
	then      Template
	otherwise Template
}

// NewBranch creates a conditional node. The then template is required; wire
// an else side with Else.
func NewBranch(id string, cond Predicate, then Template, options ...Option) *Branch {
	return &Branch{
		Base: NewBase(id, options...),
		cond: cond,
		then: then,
	}
}

// Else sets the template rendered when the predicate answers false.
func (b *Branch) Else(t Template) *Branch {
	b.otherwise = t
	return b
}

// Children implements Template.
func (b *Branch) Children() []Template {
	children := make([]Template, 0, 2)
	if b.then != nil {
		children = append(children, b.then)
	}
	if b.otherwise != nil {
		children = append(children, b.otherwise)
	}
	return children
}

// Validate implements Validator.
func (b *Branch) Validate() error {
	if b.cond == nil {
		return fmt.Errorf("%w: branch %q has no predicate", ErrConfig, b.id)
	}
	if b.then == nil {
		return fmt.Errorf("%w: branch %q has no true side", ErrConfig, b.id)
	}
	return nil
}

// Render implements Template.
func (b *Branch) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return b.Scoped(ctx, st, b, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		if b.cond == nil || b.then == nil {
			return st, fmt.Errorf("%w: branch %q is missing its predicate or true side", ErrConfig, b.id)
		}
		ok, err := b.cond.Evaluate(ctx, st)
		if err != nil {
			return st, err
		}
		if ok {
			return b.then.Render(ctx, st)
		}
		if b.otherwise != nil {
			return b.otherwise.Render(ctx, st)
		}
		return st, nil
	})
}
