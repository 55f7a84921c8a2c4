// Package messages defines the conversation message type exchanged between
// templates, model providers and the runner.
//
// A message is a role, a text payload and a free-form metadata map. The role
// set is closed: system, user, assistant, tool and control. Tool messages
// carry the output of invoked tools back to the model; control messages carry
// provider specific payloads (such as requested tool calls) that belong in
// the transcript but are not conversational text.
//
// Design decisions:
//   - One concrete struct instead of a sum type: every consumer switches on
//     Role anyway, and a closed enum keeps wire formats and stores simple.
//   - Metadata is data, not behavior: the engine never interprets Meta, it
//     only copies it. Hooks and tools own its schema.
//   - Value semantics: constructors and With* helpers return copies, so a
//     message can be shared between transcripts without aliasing surprises.
//
// Example usage:
//
//	msg := messages.User("What's the weather in Lisbon?").
//	    WithSender("cli").
//	    WithMeta(map[string]any{"locale": "pt-PT"})
//
// Timestamps are strfmt.DateTime values and IDs are time ordered V7 UUIDs,
// so a transcript sorts chronologically by either field.
package messages
