package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/pkg/uuidx"
	"github.com/casualjim/loom/session"
)

// Generate asks the model collaborator for the next message and emits
// whatever comes back. Providers usually answer with an assistant message;
// a provider that wants tools invoked answers with a control message
// instead, which downstream templates can act on.
type Generate struct {
	Base
	tools []session.ToolSpec
}

// NewGenerate creates a model call node.
func NewGenerate(id string, options ...Option) *Generate {
	return &Generate{Base: NewBase(id, options...)}
}

// Tools advertises tool definitions to the provider for this call.
func (g *Generate) Tools(specs ...session.ToolSpec) *Generate {
	g.tools = append(g.tools, specs...)
	return g
}

// Render implements Template.
func (g *Generate) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return g.Scoped(ctx, st, g, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		disp := st.Dispatcher()
		if disp == nil || disp.Model == nil {
			return st, fmt.Errorf("%w: generate %q has no model collaborator", ErrConfig, g.id)
		}
		msg, err := disp.Model.Send(ctx, session.Request{State: st, Tools: g.tools})
		if err != nil {
			return st, err
		}
		// Providers own the message content; the engine only backfills
		// identity fields they left empty.
		if msg.ID == uuid.Nil {
			msg.ID = uuidx.New()
		}
		if time.Time(msg.Timestamp).IsZero() {
			msg.Timestamp = strfmt.DateTime(time.Now())
		}
		if msg.Role == "" {
			msg.Role = messages.RoleAssistant
		}
		if msg.Sender == "" {
			msg.Sender = g.id
		}
		return st, st.Emit(ctx, msg)
	})
}
