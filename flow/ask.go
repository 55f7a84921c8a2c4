package flow

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

// Ask prompts the human collaborator and emits the answer as a user message.
// The prompt is a template rendered against the conversation variables.
type Ask struct {
	Base
	prompt   string
	def      string
	into     string
	tmpl     *template.Template
	parseErr error
}

// NewAsk creates a prompt node.
func NewAsk(id, prompt string, options ...Option) *Ask {
	a := &Ask{
		Base:   NewBase(id, options...),
		prompt: prompt,
	}
	a.tmpl, a.parseErr = template.New(id).Option("missingkey=error").Parse(prompt)
	return a
}

// Default sets the answer used when the prompter returns an empty string.
func (a *Ask) Default(def string) *Ask {
	a.def = def
	return a
}

// Into additionally stores the answer under the given variable key.
func (a *Ask) Into(key string) *Ask {
	a.into = key
	return a
}

// Validate implements Validator.
func (a *Ask) Validate() error {
	if a.parseErr != nil {
		return fmt.Errorf("%w: ask %q: %v", ErrConfig, a.id, a.parseErr)
	}
	return nil
}

// Render implements Template.
func (a *Ask) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return a.Scoped(ctx, st, a, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		disp := st.Dispatcher()
		if disp == nil || disp.Input == nil {
			return st, fmt.Errorf("%w: ask %q has no input collaborator", ErrConfig, a.id)
		}
		if a.parseErr != nil {
			return st, fmt.Errorf("%w: ask %q: %v", ErrConfig, a.id, a.parseErr)
		}

		var buf strings.Builder
		if err := a.tmpl.Execute(&buf, st.Vars()); err != nil {
			return st, fmt.Errorf("ask %q: %w", a.id, err)
		}

		answer, err := disp.Input.Ask(ctx, st, buf.String(), a.def)
		if err != nil {
			return st, err
		}
		if answer == "" {
			answer = a.def
		}

		if a.into != "" {
			st.Vars()[a.into] = answer
		}
		msg := messages.User(answer).WithSender(a.id)
		return st, st.Emit(ctx, msg)
	})
}
