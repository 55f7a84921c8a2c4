package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/casualjim/loom/session"
)

// Transformer rewrites conversation state. It may mutate the given state and
// return it, or build and return a replacement; the engine continues with
// whatever comes back. Returning an error aborts the surrounding render.
type Transformer interface {
	Transform(ctx context.Context, st *session.State) (*session.State, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, st *session.State) (*session.State, error)

// Transform implements Transformer.
func (f TransformerFunc) Transform(ctx context.Context, st *session.State) (*session.State, error) {
	return f(ctx, st)
}

// Predicate answers a yes or no question about conversation state. Branch
// conditions, loop exits and message filters are all predicates.
type Predicate interface {
	Evaluate(ctx context.Context, st *session.State) (bool, error)
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(ctx context.Context, st *session.State) (bool, error)

// Evaluate implements Predicate.
func (f PredicateFunc) Evaluate(ctx context.Context, st *session.State) (bool, error) {
	return f(ctx, st)
}

// SetVar returns a transformer that stores value under key.
func SetVar(key string, value any) Transformer {
	return TransformerFunc(func(_ context.Context, st *session.State) (*session.State, error) {
		st.Vars()[key] = value
		return st, nil
	})
}

// UpdateVar returns a transformer that replaces the value under key with
// fn(current). Missing keys hand fn a nil current value.
func UpdateVar(key string, fn func(current any) any) Transformer {
	return TransformerFunc(func(_ context.Context, st *session.State) (*session.State, error) {
		st.Vars()[key] = fn(st.Vars()[key])
		return st, nil
	})
}

// DelVar returns a transformer that removes key from the variables.
func DelVar(key string) Transformer {
	return TransformerFunc(func(_ context.Context, st *session.State) (*session.State, error) {
		delete(st.Vars(), key)
		return st, nil
	})
}

// CaptureLast returns a transformer that stores the content of the newest
// message under key. Without any message it fails: capturing before anything
// was said is a tree assembly mistake.
func CaptureLast(key string) Transformer {
	return TransformerFunc(func(_ context.Context, st *session.State) (*session.State, error) {
		last, ok := st.LastMessage()
		if !ok {
			return st, fmt.Errorf("%w: capture %q before any message exists", ErrConfig, key)
		}
		st.Vars()[key] = last.Content
		return st, nil
	})
}

// ScheduleJump returns a transformer that records a pending control transfer
// to target. The transfer fires at the next render boundary.
func ScheduleJump(target string) Transformer {
	return TransformerFunc(func(_ context.Context, st *session.State) (*session.State, error) {
		st.SetJump(target)
		return st, nil
	})
}

// VarEquals returns a predicate that is true when key holds want.
func VarEquals(key string, want any) Predicate {
	return PredicateFunc(func(_ context.Context, st *session.State) (bool, error) {
		return st.Vars()[key] == want, nil
	})
}

// VarSet returns a predicate that is true when key is present.
func VarSet(key string) Predicate {
	return PredicateFunc(func(_ context.Context, st *session.State) (bool, error) {
		_, ok := st.Vars().Get(key)
		return ok, nil
	})
}

// LastMessageContains returns a predicate that is true when the newest
// message contains sub. An empty transcript is false.
func LastMessageContains(sub string) Predicate {
	return PredicateFunc(func(_ context.Context, st *session.State) (bool, error) {
		last, ok := st.LastMessage()
		if !ok {
			return false, nil
		}
		return strings.Contains(last.Content, sub), nil
	})
}

// PassesAtLeast returns a predicate that is true once the innermost loop has
// completed n passes over its children. Outside a loop it fails.
func PassesAtLeast(n int) Predicate {
	return PredicateFunc(func(_ context.Context, st *session.State) (bool, error) {
		frame, ok := CurrentLoop(st)
		if !ok {
			return false, fmt.Errorf("%w: loop pass predicate used outside a loop", ErrConfig)
		}
		return frame.Passes() >= n, nil
	})
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return PredicateFunc(func(ctx context.Context, st *session.State) (bool, error) {
		ok, err := p.Evaluate(ctx, st)
		return !ok, err
	})
}
