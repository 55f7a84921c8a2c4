package flow

import (
	"context"
	"fmt"

	"github.com/fogfish/opts"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/pkg/stdx"
	"github.com/casualjim/loom/session"
)

// Subroutine runs an inner template against an isolated copy of the
// conversation. The inner run seeds its transcript through an init strategy,
// forwards its messages to the outer stream in real time, and on completion
// a squash strategy decides which of the produced messages get appended to
// the parent transcript.
//
// Signals raised inside the inner run are not absorbed here: break,
// terminate and jump all unwind into the outer conversation, and when they
// do the squash step is skipped.
type Subroutine struct {
	Base
	inner  Template
	init   InitStrategy
	squash SquashStrategy
	model  session.ModelSender
	disp   *session.Dispatcher
}

var (
	// WithInit sets the strategy that seeds the inner transcript. The
	// default starts from an empty transcript.
	WithInit = opts.ForName[Subroutine, InitStrategy]("init")
	// WithSquash sets the strategy that folds the inner run's messages
	// back into the parent. The default keeps only the last message.
	WithSquash = opts.ForName[Subroutine, SquashStrategy]("squash")
	// WithModel overrides just the model collaborator for the inner run.
	// Mutually exclusive with WithCollaborators.
	WithModel = opts.ForName[Subroutine, session.ModelSender]("model")
	// WithCollaborators overrides the whole collaborator bundle for the
	// inner run. Mutually exclusive with WithModel.
	WithCollaborators = opts.ForName[Subroutine, *session.Dispatcher]("disp")
)

// NewSubroutine creates a subroutine around inner. Configuring both a model
// override and a collaborator override is a configuration error.
func NewSubroutine(id string, inner Template, options ...opts.Option[Subroutine]) (*Subroutine, error) {
	s := &Subroutine{
		Base:   NewBase(id),
		inner:  inner,
		init:   CleanSlate(),
		squash: KeepLast(),
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, fmt.Errorf("%w: subroutine %q: %v", ErrConfig, id, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSubroutine is NewSubroutine that panics on configuration errors.
func MustSubroutine(id string, inner Template, options ...opts.Option[Subroutine]) *Subroutine {
	return stdx.Must1(NewSubroutine(id, inner, options...))
}

// Children implements Template.
func (s *Subroutine) Children() []Template {
	if s.inner == nil {
		return nil
	}
	return []Template{s.inner}
}

// Validate implements Validator.
func (s *Subroutine) Validate() error {
	if s.inner == nil {
		return fmt.Errorf("%w: subroutine %q has no inner template", ErrConfig, s.id)
	}
	if s.model != nil && s.disp != nil {
		return fmt.Errorf("%w: subroutine %q overrides both the model and the collaborator bundle", ErrConfig, s.id)
	}
	return nil
}

// Render implements Template.
func (s *Subroutine) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return s.Scoped(ctx, st, s, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		if err := s.Validate(); err != nil {
			return st, err
		}

		seed, err := s.init.Seed(st)
		if err != nil {
			return st, err
		}

		inner := st.Derive(seed)
		switch {
		case s.disp != nil:
			inner.AttachDispatcher(s.disp)
		case s.model != nil:
			bundle := st.Dispatcher().Clone()
			if bundle == nil {
				bundle = &session.Dispatcher{}
			}
			bundle.Model = s.model
			inner.AttachDispatcher(bundle)
		default:
			inner.AttachDispatcher(st.Dispatcher().Clone())
		}

		innerSt, err := s.inner.Render(ctx, inner)
		if err != nil {
			// Signals and failures alike unwind past the merge.
			return st, err
		}

		kept, err := s.squash.Squash(ctx, st, innerSt.Emitted())
		if err != nil {
			return st, err
		}
		st.Append(kept...)
		return st, nil
	})
}

// InitStrategy seeds the transcript of a nested run from the parent state.
// Implementations return deep copies; the inner run must never alias the
// parent's messages.
type InitStrategy interface {
	Seed(parent *session.State) ([]messages.Message, error)
}

// InitFunc adapts a function to the InitStrategy interface.
type InitFunc func(parent *session.State) ([]messages.Message, error)

// Seed implements InitStrategy.
func (f InitFunc) Seed(parent *session.State) ([]messages.Message, error) {
	return f(parent)
}

// CleanSlate starts the inner run with an empty transcript. The variables
// still come along as a deep copy; an inner run with no substitution
// environment could not render anything useful.
func CleanSlate() InitStrategy {
	return InitFunc(func(*session.State) ([]messages.Message, error) {
		return nil, nil
	})
}

// InheritSystem seeds the inner run with copies of the parent's system
// messages only.
func InheritSystem() InitStrategy {
	return InheritWhere(func(m messages.Message) bool {
		return m.Role == messages.RoleSystem
	})
}

// InheritLast seeds the inner run with copies of the parent's newest n
// messages. A non-positive n seeds nothing.
func InheritLast(n int) InitStrategy {
	return InitFunc(func(parent *session.State) ([]messages.Message, error) {
		if n <= 0 {
			return nil, nil
		}
		all := parent.Messages()
		if len(all) > n {
			all = all[len(all)-n:]
		}
		return messages.CloneAll(all), nil
	})
}

// InheritWhere seeds the inner run with copies of the parent messages the
// given filter admits.
func InheritWhere(keep func(messages.Message) bool) InitStrategy {
	return InitFunc(func(parent *session.State) ([]messages.Message, error) {
		var seed []messages.Message
		for msg := range parent.MessagesIter() {
			if keep(msg) {
				seed = append(seed, msg.Clone())
			}
		}
		return seed, nil
	})
}
