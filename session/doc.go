// Package session holds the conversation state that flows through a template
// tree: the append-only message log, the mutable variable environment, the
// frame stack that tracks nested template renders, and the dispatcher that
// bundles the collaborators a render may call out to.
//
// # State
//
// A State is owned by exactly one run at a time. The engine is cooperative
// and single threaded per run, so State performs no internal locking. Reads
// hand out copies where aliasing would let callers corrupt the log.
//
// The message log is append-only. Template nodes add to it through
// State.Emit, which both records the message and forwards it to the run's
// sink in the same call. State.Append records without forwarding, which is
// what subroutine merges use: their messages were already forwarded in real
// time by the nested run.
//
// # Frames
//
// Every template render pushes exactly one frame and releases it on every
// exit path, including control transfers and errors. Frames live in the
// stack's backing array and are addressed by the depth index returned from
// Push, so a node can keep mutating its frame (a sequence cursor, a loop
// counter) without re-pushing. Release panics when the stack is shallower
// than the depth being released to; that is an engine bug, never user error.
//
// # Dispatcher
//
// The dispatcher carries the model collaborator, the user prompter and the
// message sink. Cloning a dispatcher copies the bundle, not the
// collaborators, which is exactly what subroutine overrides need: swap one
// entry, share the rest.
package session
