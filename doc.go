/*
Package loom is a template driven conversation engine. A conversation is
described as a tree of template nodes, and a runner drives that tree against
a growing conversation state until the tree completes, a node terminates the
run, or the run hits its message ceiling.

The package itself is a thin composition surface over the engine packages:
it re-exports the node constructors, the common predicates and the runner
options so simple programs import only loom.

# Basic Usage

Build a tree with the verb constructors, then run it:

	tree := loom.Seq("support",
		loom.Say("welcome", "Hi {{.name}}, what can I help you with?"),
		loom.Ask("intake", "Describe the problem").Into("problem"),
		loom.Loop("triage",
			loom.Generate("draft"),
		).Until(loom.LastMessageContains("resolved")).MaxPasses(5),
	)

	final, err := loom.Run(ctx, tree,
		loom.WithModel(openai.GPT4oMini()),
		loom.WithPrompter(runner.Console()),
		loom.WithMaxMessages(50),
	)

Run returns the final state with the full transcript and variables; every
designed stop (completion, terminate, ceiling) comes back with a nil error.

# Architecture

The engine is split along clear seams:

1. Templates (flow)
  - The node contract and the built-in nodes: Say, Generate, Ask, Seq,
    Loop, If, Goto, Break, Func, Terminate and Subroutine
  - The render discipline: stack frames, pre and post hooks, pending jumps
  - Control transfer as signal errors: jump, break, terminate

2. State (session)
  - The message log, variable environment and render stack
  - The collaborator bundle: model, prompter and sink

3. Driving (runner)
  - Tree validation: duplicate ids, reserved ids, unresolved jump targets
  - The pump loop servicing jumps and enforcing the message ceiling
  - Event fan-out to hooks and broker topics

4. Everything else
  - provider wires models, tool wires callable functions, store archives
    finished transcripts, flowfile loads trees from YAML documents

# Integration

Loom integrates with several backends:

  - OpenAI for model calls (provider/openai)
  - NATS for event distribution (broker)
  - SQLite and Redis for transcript archives (store)

# Examples

The examples directory contains complete programs: a minimal scripted
conversation, interactive input, tool calling, subroutine isolation and
flowfile loading. cmd/loom runs flowfile documents from the command line.
*/
package loom
