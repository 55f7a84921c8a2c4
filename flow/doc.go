// Package flow implements the template tree that drives a conversation: the
// node contract, the built-in composite nodes, the hook pipeline and the
// control transfer signals.
//
// # The template contract
//
// Every node implements Template. Render advances the conversation and obeys
// a fixed discipline: push one frame, run the pre hooks, honor a pending
// control transfer, run the node's own logic, run the post hooks, release
// the frame. The frame is released on every exit path, normal or not, which
// is what keeps the stack balanced when signals or errors unwind through
// nested renders. Custom nodes get the discipline for free by embedding Base
// and wrapping their logic in Base.Scoped.
//
// Walk yields every node reachable from a root exactly once, parent before
// children, and tolerates cycles. Node identity is pointer identity, so two
// distinct nodes that share an id are both visited; the runner rejects such
// trees when it builds its lookup table.
//
// # Signals
//
// Control transfers travel as error values so they unwind through the same
// return paths as real failures: JumpSignal restarts the run at another
// node, BreakSignal exits the nearest enclosing Sequence or Loop, and
// TerminateSignal ends the run. Only the documented catch points absorb
// them; everything else passes them through untouched, releasing frames as
// it goes.
//
// # Hooks
//
// Hooks are Transformers (state in, state out) and Predicates (state in,
// bool out). A transformer may return a brand new state; the engine carries
// on with whatever it returns. Hooks run in list order and may themselves
// call collaborators through the state's dispatcher.
//
// # Configuration errors
//
// Mistakes an author can make while assembling a tree (a malformed message
// template, a branch without a true side, duplicate ids) are configuration
// errors: they wrap ErrConfig and surface either from the constructor or
// from Validate, which the runner calls for every node before the first
// render.
package flow
