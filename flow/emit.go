package flow

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

// Emit renders a message template against the conversation variables and
// emits the result. The template syntax is text/template with missing keys
// treated as errors, so a typo in a variable name fails the render instead
// of producing a hole in the message.
type Emit struct {
	Base
	text     string
	role     messages.Role
	tmpl     *template.Template
	parseErr error
}

// NewEmit creates an emit node. The template is parsed here; a malformed
// template surfaces from Validate before the first render.
func NewEmit(id, text string, options ...Option) *Emit {
	e := &Emit{
		Base: NewBase(id, options...),
		text: text,
		role: messages.RoleAssistant,
	}
	e.tmpl, e.parseErr = template.New(id).Option("missingkey=error").Parse(text)
	return e
}

// As sets the role of the emitted message. The default is assistant.
func (e *Emit) As(role messages.Role) *Emit {
	e.role = role
	return e
}

// Validate implements Validator.
func (e *Emit) Validate() error {
	if e.parseErr != nil {
		return fmt.Errorf("%w: emit %q: %v", ErrConfig, e.id, e.parseErr)
	}
	if !e.role.Valid() {
		return fmt.Errorf("%w: emit %q: unknown role %q", ErrConfig, e.id, e.role)
	}
	return nil
}

// Render implements Template.
func (e *Emit) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return e.Scoped(ctx, st, e, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		if e.parseErr != nil {
			return st, fmt.Errorf("%w: emit %q: %v", ErrConfig, e.id, e.parseErr)
		}
		var buf strings.Builder
		if err := e.tmpl.Execute(&buf, st.Vars()); err != nil {
			return st, fmt.Errorf("emit %q: %w", e.id, err)
		}
		msg := messages.New(e.role, buf.String()).WithSender(e.id)
		return st, st.Emit(ctx, msg)
	})
}
