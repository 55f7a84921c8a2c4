package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fogfish/opts"

	"github.com/casualjim/loom/broker"
	"github.com/casualjim/loom/events"
	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/internal/registry"
	"github.com/casualjim/loom/pkg/slogx"
	"github.com/casualjim/loom/session"
)

// Runner drives one flow tree. It is immutable after New and safe to reuse
// across runs; all per run state lives on the session.State and the per run
// sink.
type Runner struct {
	root        flow.Template
	registry    *registry.Registry[flow.Template]
	startAt     string
	maxMessages int
	hooks       []events.Hook
	topic       broker.Topic
	model       session.ModelSender
	prompter    session.Prompter
	sink        session.Sink
}

var (
	// WithStartAt overrides the starting node. The id must resolve against
	// the tree's registry.
	WithStartAt = opts.ForName[Runner, string]("startAt")
	// WithMaxMessages caps how many messages a run may forward. Zero means
	// unlimited.
	WithMaxMessages = opts.ForName[Runner, int]("maxMessages")
	// WithTopic publishes the run's event stream to a broker topic.
	WithTopic = opts.ForName[Runner, broker.Topic]("topic")
	// WithModel wires the default model collaborator. A dispatcher already
	// attached to the state keeps its own model.
	WithModel = opts.ForName[Runner, session.ModelSender]("model")
	// WithPrompter wires the default user input collaborator.
	WithPrompter = opts.ForName[Runner, session.Prompter]("prompter")
	// WithSink forwards every emitted message to an additional downstream
	// sink after the run's own bookkeeping.
	WithSink = opts.ForName[Runner, session.Sink]("sink")
)

// WithHook subscribes a hook to the run's event stream. May be given more
// than once; hooks are invoked in registration order.
func WithHook(hook events.Hook) opts.Option[Runner] {
	return opts.Type[Runner](func(r *Runner) error {
		if hook == nil {
			return errors.New("hook is required")
		}
		r.hooks = append(r.hooks, hook)
		return nil
	})
}

// New builds a runner for the given tree. The whole tree is resolved and
// validated here: duplicate ids, a non terminate node claiming the reserved
// terminate id, nodes that fail their own Validate, and jump targets that do
// not resolve all surface as configuration errors before anything renders.
func New(root flow.Template, options ...opts.Option[Runner]) (*Runner, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: runner needs a root template", flow.ErrConfig)
	}

	r := Runner{root: root, registry: registry.New[flow.Template]()}

	for tmpl := range flow.Walk(root) {
		id := tmpl.ID()
		if id == "" {
			return nil, fmt.Errorf("%w: template %T has no id", flow.ErrConfig, tmpl)
		}
		if id == flow.TerminateID && tmpl != flow.Terminate() {
			return nil, fmt.Errorf("%w: id %q is reserved for the terminate node", flow.ErrConfig, id)
		}
		if _, exists := r.registry.Get(id); exists {
			return nil, fmt.Errorf("%w: duplicate template id %q", flow.ErrConfig, id)
		}
		if v, ok := tmpl.(flow.Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		r.registry.Add(id, tmpl)
	}

	// The terminate singleton is always addressable, so a jump to it works
	// even when no tree node references it.
	if _, ok := r.registry.Get(flow.TerminateID); !ok {
		r.registry.Add(flow.TerminateID, flow.Terminate())
	}

	for tmpl := range flow.Walk(root) {
		g, ok := tmpl.(*flow.Goto)
		if !ok {
			continue
		}
		if _, ok := r.registry.Get(g.Target()); !ok {
			return nil, fmt.Errorf("%w: goto %q targets unknown template %q", flow.ErrConfig, g.ID(), g.Target())
		}
	}

	if err := opts.Apply(&r, options); err != nil {
		return nil, fmt.Errorf("%w: %s", flow.ErrConfig, err)
	}

	if r.startAt != "" {
		if _, ok := r.registry.Get(r.startAt); !ok {
			return nil, fmt.Errorf("%w: start template %q does not exist", flow.ErrConfig, r.startAt)
		}
	}
	if r.maxMessages < 0 {
		return nil, fmt.Errorf("%w: message ceiling must not be negative", flow.ErrConfig)
	}

	return &r, nil
}

// Must builds a runner and panics on configuration errors.
func Must(root flow.Template, options ...opts.Option[Runner]) *Runner {
	r, err := New(root, options...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the registered template with the given id.
func (r *Runner) Resolve(id string) (flow.Template, bool) {
	return r.registry.Get(id)
}

// Templates returns the ids of every registered template.
func (r *Runner) Templates() []string {
	return r.registry.Keys()
}

// Run drives the tree against st until the conversation ends and returns the
// final state. A nil st starts a fresh conversation. The returned error is
// nil for every designed stop: completion, terminate, and the message
// ceiling. Configuration and collaborator errors come back non nil, with the
// state as far as it got.
func (r *Runner) Run(ctx context.Context, st *session.State) (*session.State, error) {
	if st == nil {
		st = session.New()
	}

	rs := r.newRunSink(st)
	r.attachDispatcher(st, rs)

	node := r.root
	if r.startAt != "" {
		start, ok := r.registry.Get(r.startAt)
		if !ok {
			err := fmt.Errorf("%w: start template %q does not exist", flow.ErrConfig, r.startAt)
			rs.fail(ctx, err)
			return st, err
		}
		node = start
	}

	slog.InfoContext(ctx, "starting run", slogx.Run(st.ID().String()), slogx.Node(node.ID()))

	for {
		if err := ctx.Err(); err != nil {
			rs.fail(ctx, err)
			return st, err
		}

		var err error
		st, err = node.Render(ctx, st)

		switch {
		case err == nil:
			slog.InfoContext(ctx, "run complete", slogx.Run(st.ID().String()), slog.Int("messages", rs.count))
			rs.done(ctx, events.ReasonCompleted)
			return st, nil

		case errors.Is(err, errCeilingReached):
			slog.WarnContext(ctx, "message ceiling reached, stopping run",
				slogx.Run(st.ID().String()), slog.Int("ceiling", r.maxMessages))
			rs.done(ctx, events.ReasonCeiling)
			return st, nil

		case flow.IsTerminate(err):
			slog.WarnContext(ctx, "conversation terminated", slogx.Run(st.ID().String()))
			rs.done(ctx, events.ReasonTerminated)
			return st, nil

		case flow.IsBreak(err):
			cfgErr := fmt.Errorf("%w: break signal escaped every loop and sequence", flow.ErrConfig)
			rs.fail(ctx, cfgErr)
			return st, cfgErr

		default:
			sig, ok := flow.AsJump(err)
			if !ok {
				slog.ErrorContext(ctx, "run failed", slogx.Run(st.ID().String()), slogx.Error(err))
				rs.fail(ctx, err)
				return st, err
			}

			// Every frame was released while the signal unwound; anything
			// left on the stack means a node broke the frame discipline.
			if !st.Stack().Empty() {
				panic(fmt.Sprintf("jump to %q with %d frames still on the stack", sig.Target, st.Stack().Depth()))
			}

			next, ok := r.registry.Get(sig.Target)
			if !ok {
				cfgErr := fmt.Errorf("%w: jump target %q does not exist", flow.ErrConfig, sig.Target)
				rs.fail(ctx, cfgErr)
				return st, cfgErr
			}

			slog.InfoContext(ctx, "control transfer", slogx.Run(st.ID().String()), slogx.Node(next.ID()))
			rs.transfer(ctx, sig.Target)
			node = next
		}
	}
}

func (r *Runner) newRunSink(st *session.State) *runSink {
	rs := &runSink{
		runID:   st.ID(),
		ceiling: r.maxMessages,
		hook:    events.CompositeHook(r.hooks),
		topic:   r.topic,
	}
	if base := st.Dispatcher(); base != nil && base.Sink != nil {
		rs.next = append(rs.next, base.Sink)
	}
	if r.sink != nil {
		rs.next = append(rs.next, r.sink)
	}
	return rs
}

// attachDispatcher installs the per run sink while keeping any collaborators
// the caller wired on the state. Runner level model and prompter fill the
// gaps only.
func (r *Runner) attachDispatcher(st *session.State, rs *runSink) {
	disp := st.Dispatcher().Clone()
	if disp == nil {
		disp = &session.Dispatcher{}
	}
	if disp.Model == nil {
		disp.Model = r.model
	}
	if disp.Input == nil {
		disp.Input = r.prompter
	}
	disp.Sink = rs
	st.AttachDispatcher(disp)
}
