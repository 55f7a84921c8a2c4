// Package provider has model senders that run entirely in process. They
// implement the session.ModelSender contract without talking to a hosted
// model, which makes them the right collaborators for tests, examples and
// offline development of templates.
//
// The senders cover the usual shapes a conversation needs:
//   - Static: every call answers with the same reply
//   - Scripted: calls replay a fixed list of replies in order
//   - Echo: every call answers with the newest transcript message
//   - Func: a plain function, for anything the others do not cover
//
// Real providers live in subpackages. provider/openai adapts the hosted
// OpenAI chat completion API to the same contract, so a template tree runs
// unchanged against a script or a live model.
//
// Example usage:
//
//	model := provider.Scripted(
//		"It looks sunny today.",
//		"Goodbye!",
//	)
//
//	r := runner.Must(root, runner.WithModel(model))
//	st, err := r.Run(ctx, nil)
package provider
