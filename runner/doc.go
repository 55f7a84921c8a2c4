// Package runner drives a flow tree to completion. A Runner resolves the
// tree into an id registry, validates every node eagerly, and then pumps
// Render until the conversation ends.
//
// The runner is where control transfer signals come to rest. A terminate
// signal stops the run with a warning. A jump signal restarts the run at the
// resolved target; by the time the signal reaches the runner every frame has
// been released, so the run resumes on an empty stack. A break signal that
// escapes all loops and sequences is a configuration error. Collaborator
// errors stop the run and propagate to the caller unchanged.
//
// Every emitted message passes through a per run sink that counts it against
// the optional message ceiling, fans it out as an events.Emitted to the
// configured hooks and broker topic, and forwards it to any downstream sink.
// When the ceiling is reached the run stops with a warning after the final
// allowed message was delivered; the run itself still returns the final
// state and a nil error.
package runner
