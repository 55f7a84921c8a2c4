// Package console renders engine events for a human at a terminal. It is
// shared by the loom command and the examples.
package console

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/casualjim/loom/events"
	"github.com/casualjim/loom/messages"
)

// Hook prints one line per engine event as it happens. Assistant prose is
// rendered as markdown when a terminal renderer could be built, raw
// otherwise.
type Hook struct {
	out  io.Writer
	glam *glamour.TermRenderer
}

var _ events.Hook = (*Hook)(nil)

// New returns a hook writing to out.
func New(out io.Writer) *Hook {
	glam, _ := glamour.NewTermRenderer(glamour.WithAutoStyle())
	return &Hook{out: out, glam: glam}
}

func (h *Hook) OnEmitted(_ context.Context, ev events.Emitted) {
	msg := ev.Message
	label := msg.Sender
	if label == "" {
		label = defaultLabel(msg.Role)
	}

	switch msg.Role {
	case messages.RoleAssistant:
		fmt.Fprint(h.out, color.MagentaString(label)+": ")
		fmt.Fprintln(h.out, h.render(msg.Content))
	case messages.RoleUser:
		fmt.Fprintf(h.out, "%s: %s\n", color.CyanString(label), msg.Content)
	case messages.RoleTool, messages.RoleControl:
		fmt.Fprintf(h.out, "%s: %s\n", color.YellowString(label), msg.Content)
	default:
		fmt.Fprintf(h.out, "%s: %s\n", color.HiBlackString(label), msg.Content)
	}
}

func (h *Hook) OnTransfer(_ context.Context, ev events.Transfer) {
	fmt.Fprintln(h.out, color.HiBlackString("-> %s", ev.Target))
}

func (h *Hook) OnDone(_ context.Context, ev events.Done) {
	var text string
	switch ev.Reason {
	case events.ReasonTerminated:
		text = "conversation terminated"
	case events.ReasonCeiling:
		text = "message ceiling reached"
	default:
		text = "conversation complete"
	}
	fmt.Fprintln(h.out, color.HiBlackString("%s (%d messages)", text, ev.Messages))
}

func (h *Hook) OnError(_ context.Context, ev events.Error) {
	fmt.Fprintf(h.out, "Error: %v\n", ev.Err)
}

func (h *Hook) render(content string) string {
	if h.glam == nil {
		return content
	}
	out, err := h.glam.Render(content)
	if err != nil {
		return content
	}
	return out
}

func defaultLabel(role messages.Role) string {
	switch role {
	case messages.RoleSystem:
		return "System"
	case messages.RoleUser:
		return "User"
	case messages.RoleAssistant:
		return "Assistant"
	case messages.RoleTool:
		return "Tool"
	default:
		return "Control"
	}
}
