package flow

import (
	"context"
	"iter"

	"github.com/casualjim/loom/session"
)

// Template is a node in the conversation tree.
//
// Render advances the conversation and returns the state to continue with,
// which may differ from the input when a hook replaced it. Control transfers
// come back as signal errors. Implementations must keep the frame discipline
// described in the package documentation; embedding Base and using
// Base.Scoped is the supported way to get it right.
type Template interface {
	// ID returns the node's identifier, unique within one tree.
	ID() string

	// Render runs the node against the given state.
	Render(ctx context.Context, st *session.State) (*session.State, error)

	// Children returns the node's direct children, in render order.
	Children() []Template

	// NewFrame creates the stack frame for one render of this node.
	NewFrame(st *session.State) session.Frame
}

// Validator is implemented by nodes that can detect configuration mistakes
// before the first render. The runner validates every registered node.
type Validator interface {
	Validate() error
}

// BodyFunc is a node's own logic, run by Scoped between the pre and post
// hooks. The frame is the one Scoped pushed for this render.
type BodyFunc func(ctx context.Context, st *session.State, frame session.Frame) (*session.State, error)

// Option configures the common node fields at construction time.
type Option func(*Base)

// WithPre appends pre hooks, run before the node's own logic.
func WithPre(hooks ...Transformer) Option {
	return func(b *Base) { b.pre = append(b.pre, hooks...) }
}

// WithPost appends post hooks, run after the node's own logic completed
// normally. Post hooks do not run when a signal or error unwinds the render.
func WithPost(hooks ...Transformer) Option {
	return func(b *Base) { b.post = append(b.post, hooks...) }
}

// Base carries the fields every node shares: the id and the hook lists.
// Concrete nodes embed it.
type Base struct {
	id   string
	pre  []Transformer
	post []Transformer
}

// NewBase creates the shared node core.
func NewBase(id string, options ...Option) Base {
	b := Base{id: id}
	for _, opt := range options {
		opt(&b)
	}
	return b
}

// ID implements Template.
func (b *Base) ID() string { return b.id }

// Children implements Template for leaf nodes.
func (b *Base) Children() []Template { return nil }

// NewFrame implements Template with a plain presence frame.
func (b *Base) NewFrame(*session.State) session.Frame {
	return &session.BaseFrame{Template: b.id}
}

// Pre appends pre hooks after construction.
func (b *Base) Pre(hooks ...Transformer) { b.pre = append(b.pre, hooks...) }

// Post appends post hooks after construction.
func (b *Base) Post(hooks ...Transformer) { b.post = append(b.post, hooks...) }

// Scoped runs body under the render discipline: push self's frame, run pre
// hooks, honor a pending jump, run body, run post hooks, release the frame.
// The release happens on every exit path. Hooks may replace the state; the
// replacement is what body and the caller see.
func (b *Base) Scoped(ctx context.Context, st *session.State, self Template, body BodyFunc) (*session.State, error) {
	stack := st.Stack()
	depth := stack.Depth()
	frame := self.NewFrame(st)
	stack.Push(frame)
	defer func() { stack.Release(depth) }()

	var err error
	for _, h := range b.pre {
		if st, err = h.Transform(ctx, st); err != nil {
			return st, err
		}
	}

	if target, ok := st.TakeJump(); ok {
		return st, JumpSignal{Target: target}
	}

	if st, err = body(ctx, st, frame); err != nil {
		return st, err
	}

	for _, h := range b.post {
		if st, err = h.Transform(ctx, st); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Walk yields every template reachable from root exactly once, parent before
// children. Cycles are safe: a node already seen is skipped. Identity is
// pointer identity, not the id string.
func Walk(root Template) iter.Seq[Template] {
	return func(yield func(Template) bool) {
		visited := make(map[Template]struct{})
		var walk func(Template) bool
		walk = func(t Template) bool {
			if t == nil {
				return true
			}
			if _, seen := visited[t]; seen {
				return true
			}
			visited[t] = struct{}{}
			if !yield(t) {
				return false
			}
			for _, child := range t.Children() {
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}

// CurrentLoop returns the innermost loop frame on the state's stack, when
// one exists. Hooks use it to observe loop progress.
func CurrentLoop(st *session.State) (*session.LoopFrame, bool) {
	stack := st.Stack()
	for i := stack.Depth() - 1; i >= 0; i-- {
		if frame, ok := stack.Frame(i).(*session.LoopFrame); ok {
			return frame, true
		}
	}
	return nil, false
}
