package tool

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/pkg/uuidx"
	"github.com/casualjim/loom/session"
	"github.com/casualjim/loom/types"
)

// defaultMaxRounds bounds how many times one render lets the model request
// tools before the loop gives up.
const defaultMaxRounds = 5

// Loop drives the tool calling exchange as a single template node. Each
// round asks the model for a message with the tools advertised; when the
// answer requests calls, the loop invokes them, splices the results into the
// transcript and asks again. A prose answer ends the render.
type Loop struct {
	flow.Base
	tools     []Definition
	maxRounds int
}

var (
	_ flow.Template  = (*Loop)(nil)
	_ flow.Validator = (*Loop)(nil)
)

// NewLoop creates a tool calling node.
func NewLoop(id string, options ...flow.Option) *Loop {
	return &Loop{Base: flow.NewBase(id, options...), maxRounds: defaultMaxRounds}
}

// Use adds tools the model may call during this node's renders.
func (l *Loop) Use(defs ...Definition) *Loop {
	l.tools = append(l.tools, defs...)
	return l
}

// MaxRounds caps how many tool invoking rounds one render may take.
func (l *Loop) MaxRounds(n int) *Loop {
	l.maxRounds = n
	return l
}

// Validate implements flow.Validator.
func (l *Loop) Validate() error {
	if len(l.tools) == 0 {
		return fmt.Errorf("%w: tool loop %q has no tools", flow.ErrConfig, l.ID())
	}
	if l.maxRounds < 1 {
		return fmt.Errorf("%w: tool loop %q needs at least one round, got %d", flow.ErrConfig, l.ID(), l.maxRounds)
	}
	names := make(map[string]struct{}, len(l.tools))
	for _, def := range l.tools {
		name, _ := def.ToNameAndSchema()
		if _, dup := names[name]; dup {
			return fmt.Errorf("%w: tool loop %q registers tool %q twice", flow.ErrConfig, l.ID(), name)
		}
		names[name] = struct{}{}
	}
	return nil
}

// Render implements flow.Template.
func (l *Loop) Render(ctx context.Context, st *session.State) (*session.State, error) {
	return l.Scoped(ctx, st, l, func(ctx context.Context, st *session.State, _ session.Frame) (*session.State, error) {
		disp := st.Dispatcher()
		if disp == nil || disp.Model == nil {
			return st, fmt.Errorf("%w: tool loop %q has no model collaborator", flow.ErrConfig, l.ID())
		}

		specs := make([]session.ToolSpec, len(l.tools))
		byName := make(map[string]Definition, len(l.tools))
		for i, def := range l.tools {
			spec, err := def.Spec()
			if err != nil {
				return st, err
			}
			specs[i] = spec
			byName[spec.Name] = def
		}

		for round := 0; ; round++ {
			msg, err := disp.Model.Send(ctx, session.Request{State: st, Tools: specs})
			if err != nil {
				return st, err
			}
			fillIdentity(&msg, l.ID())
			// The request stays in the log so later model calls see the
			// full exchange.
			if err := st.Emit(ctx, msg); err != nil {
				return st, err
			}

			calls, ok := msg.ToolCalls()
			if !ok {
				return st, nil
			}
			if round == l.maxRounds {
				return st, fmt.Errorf("tool loop %q still requesting tools after %d rounds", l.ID(), l.maxRounds)
			}

			for _, call := range calls {
				def, exists := byName[call.Name]
				if !exists {
					return st, fmt.Errorf("unknown tool %s", call.Name)
				}

				value, updated, err := def.Invoke(call.Arguments, st.Vars())
				if err != nil {
					return st, fmt.Errorf("tool %s: %w", call.Name, err)
				}
				if updated != nil {
					merged := st.Vars().Clone()
					if merged == nil {
						merged = make(types.ContextVars, len(updated))
					}
					maps.Copy(merged, updated)
					st.SetVars(merged)
				}

				reply := messages.ToolResponse(call.ID, call.Name, value).WithSender(l.ID())
				if err := st.Emit(ctx, reply); err != nil {
					return st, err
				}
			}
		}
	})
}

func fillIdentity(msg *messages.Message, sender string) {
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
		msg.Sender = sender
	}
}
