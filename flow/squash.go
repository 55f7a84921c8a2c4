package flow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

// SquashStrategy reduces the messages a nested run produced to the subset
// appended to the parent transcript. The parent state is available for
// variable access and for strategies that consult the model; produced holds
// only what the inner run emitted itself, never its inherited seed.
type SquashStrategy interface {
	Squash(ctx context.Context, parent *session.State, produced []messages.Message) ([]messages.Message, error)
}

// SquashFunc adapts a function to the SquashStrategy interface.
type SquashFunc func(ctx context.Context, parent *session.State, produced []messages.Message) ([]messages.Message, error)

// Squash implements SquashStrategy.
func (f SquashFunc) Squash(ctx context.Context, parent *session.State, produced []messages.Message) ([]messages.Message, error) {
	return f(ctx, parent, produced)
}

// KeepLast keeps only the final message of the inner run. An inner run that
// produced nothing folds to nothing.
func KeepLast() SquashStrategy {
	return SquashFunc(func(_ context.Context, _ *session.State, produced []messages.Message) ([]messages.Message, error) {
		if len(produced) == 0 {
			return nil, nil
		}
		return produced[len(produced)-1:], nil
	})
}

// KeepAll keeps every message the inner run produced.
func KeepAll() SquashStrategy {
	return SquashFunc(func(_ context.Context, _ *session.State, produced []messages.Message) ([]messages.Message, error) {
		return produced, nil
	})
}

// KeepRoles keeps the produced messages whose role is in the given set, in
// their original order.
func KeepRoles(roles ...messages.Role) SquashStrategy {
	return SquashFunc(func(_ context.Context, _ *session.State, produced []messages.Message) ([]messages.Message, error) {
		var kept []messages.Message
		for _, msg := range produced {
			if slices.Contains(roles, msg.Role) {
				kept = append(kept, msg)
			}
		}
		return kept, nil
	})
}

// SelectWithModel asks the parent's model which messages to keep. The model
// sees the produced messages as a numbered list and must reply with a JSON
// array of zero based indexes. Anything else is a strategy failure and
// aborts the subroutine.
func SelectWithModel() SquashStrategy {
	return SquashFunc(func(ctx context.Context, parent *session.State, produced []messages.Message) ([]messages.Message, error) {
		if len(produced) == 0 {
			return nil, nil
		}
		model := squashModel(parent)
		if model == nil {
			return nil, fmt.Errorf("%w: select squash needs a model collaborator", ErrConfig)
		}

		var prompt strings.Builder
		prompt.WriteString("A nested conversation finished and is being folded into its parent. ")
		prompt.WriteString("Reply with only a JSON array of the zero-based indexes of the messages worth keeping.\n\n")
		writeNumbered(&prompt, produced)

		picker := session.New(
			session.WithMessages(messages.User(prompt.String())),
			session.WithVars(parent.Vars().Clone()),
		)
		reply, err := model.Send(ctx, session.Request{State: picker})
		if err != nil {
			return nil, err
		}

		parsed := gjson.Parse(strings.TrimSpace(reply.Content))
		if !parsed.IsArray() {
			return nil, fmt.Errorf("select squash: model reply %q is not a JSON array", reply.Content)
		}
		var kept []messages.Message
		var bad error
		parsed.ForEach(func(_, value gjson.Result) bool {
			idx := int(value.Int())
			if !value.Exists() || value.Type != gjson.Number || idx < 0 || idx >= len(produced) {
				bad = fmt.Errorf("select squash: index %s out of range for %d messages", value.Raw, len(produced))
				return false
			}
			kept = append(kept, produced[idx])
			return true
		})
		if bad != nil {
			return nil, bad
		}
		return kept, nil
	})
}

// SummarizeWithModel folds the whole inner run into a single assistant
// message written by the parent's model.
func SummarizeWithModel() SquashStrategy {
	return SquashFunc(func(ctx context.Context, parent *session.State, produced []messages.Message) ([]messages.Message, error) {
		if len(produced) == 0 {
			return nil, nil
		}
		model := squashModel(parent)
		if model == nil {
			return nil, fmt.Errorf("%w: summarize squash needs a model collaborator", ErrConfig)
		}

		var prompt strings.Builder
		prompt.WriteString("Summarize the following nested exchange in one short paragraph. ")
		prompt.WriteString("Reply with only the summary.\n\n")
		writeNumbered(&prompt, produced)

		summarizer := session.New(
			session.WithMessages(messages.User(prompt.String())),
			session.WithVars(parent.Vars().Clone()),
		)
		reply, err := model.Send(ctx, session.Request{State: summarizer})
		if err != nil {
			return nil, err
		}
		return []messages.Message{messages.Assistant(reply.Content).WithSender("summarize")}, nil
	})
}

func squashModel(parent *session.State) session.ModelSender {
	disp := parent.Dispatcher()
	if disp == nil {
		return nil
	}
	return disp.Model
}

func writeNumbered(b *strings.Builder, msgs []messages.Message) {
	for i, msg := range msgs {
		fmt.Fprintf(b, "%d. [%s] %s\n", i, msg.Role, msg.Content)
	}
}
