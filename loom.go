package loom

import (
	"context"

	"github.com/fogfish/opts"

	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/runner"
	"github.com/casualjim/loom/session"
	"github.com/casualjim/loom/types"
)

// Aliases for the handful of types nearly every caller touches, so simple
// programs import only this package.
type (
	Template    = flow.Template
	Predicate   = flow.Predicate
	Transformer = flow.Transformer
	Message     = messages.Message
	Role        = messages.Role
	ContextVars = types.ContextVars
	State       = session.State
	Runner      = runner.Runner
)

// ErrConfig is the sentinel every configuration error wraps. Check it with
// errors.Is.
var ErrConfig = flow.ErrConfig

// NewState creates a conversation state. Combine with WithVars to seed the
// variable environment.
var (
	NewState = session.New
	WithVars = session.WithVars
)

// Say emits fixed text. The text is a template over the state's variables
// and defaults to the assistant role; chain As to change it.
func Say(id, text string, options ...flow.Option) *flow.Emit {
	return flow.NewEmit(id, text, options...)
}

// Generate asks the model for the next message.
func Generate(id string, options ...flow.Option) *flow.Generate {
	return flow.NewGenerate(id, options...)
}

// Ask collects input from the human side. Chain Default and Into to set a
// fallback answer and capture the reply into a variable.
func Ask(id, prompt string, options ...flow.Option) *flow.Ask {
	return flow.NewAsk(id, prompt, options...)
}

// Seq renders children in order.
func Seq(id string, children ...Template) *flow.Sequence {
	return flow.NewSequence(id, children...)
}

// Loop renders children repeatedly. Chain Until and MaxPasses to bound it.
func Loop(id string, children ...Template) *flow.Loop {
	return flow.NewLoop(id, children...)
}

// If renders then when cond holds. Chain Else for the other arm.
func If(id string, cond Predicate, then Template, options ...flow.Option) *flow.Branch {
	return flow.NewBranch(id, cond, then, options...)
}

// Goto jumps to the template named target.
func Goto(id, target string) *flow.Goto {
	return flow.NewGoto(id, target)
}

// Break exits the nearest enclosing loop or sequence.
func Break(id string) *flow.Break {
	return flow.NewBreak(id)
}

// Func wraps a plain function as a node.
func Func(id string, fn flow.RenderFunc, options ...flow.Option) *flow.Func {
	return flow.NewFunc(id, fn, options...)
}

// Terminate returns the shared terminate node. Rendering it ends the
// conversation.
func Terminate() Template {
	return flow.Terminate()
}

// Sub runs inner on an isolated conversation and folds the result back into
// the parent. Configuration errors panic; use flow.NewSubroutine when you
// need them as values.
func Sub(id string, inner Template, options ...opts.Option[flow.Subroutine]) *flow.Subroutine {
	return flow.MustSubroutine(id, inner, options...)
}

// Common predicates, re-exported for If and Loop.Until.
var (
	VarEquals           = flow.VarEquals
	VarSet              = flow.VarSet
	LastMessageContains = flow.LastMessageContains
	PassesAtLeast       = flow.PassesAtLeast
	Not                 = flow.Not
)

// Runner options, re-exported so callers configure a run without importing
// the runner package.
var (
	WithStartAt     = runner.WithStartAt
	WithMaxMessages = runner.WithMaxMessages
	WithTopic       = runner.WithTopic
	WithModel       = runner.WithModel
	WithPrompter    = runner.WithPrompter
	WithSink        = runner.WithSink
	WithHook        = runner.WithHook
)

// New builds a runner for root. The whole tree is validated here.
func New(root Template, options ...opts.Option[runner.Runner]) (*runner.Runner, error) {
	return runner.New(root, options...)
}

// Must is New that panics on configuration errors.
func Must(root Template, options ...opts.Option[runner.Runner]) *runner.Runner {
	return runner.Must(root, options...)
}

// Run builds a runner for root and drives a fresh conversation to its end,
// returning the final state. For a seeded or resumed conversation build the
// runner yourself and call its Run with your own state.
func Run(ctx context.Context, root Template, options ...opts.Option[runner.Runner]) (*session.State, error) {
	r, err := runner.New(root, options...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, nil)
}
