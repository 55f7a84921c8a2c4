package console

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/casualjim/loom/events"
	"github.com/casualjim/loom/messages"
)

func TestHookPrintsEmittedMessages(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf)
	ctx := context.Background()

	h.OnEmitted(ctx, events.Emitted{Message: messages.Assistant("All set.").WithSender("coach")})
	h.OnEmitted(ctx, events.Emitted{Message: messages.User("hello there")})
	h.OnEmitted(ctx, events.Emitted{Message: messages.ToolResult("42")})

	out := buf.String()
	assert.Contains(t, out, "coach")
	assert.Contains(t, out, "All set.")
	assert.Contains(t, out, "User")
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "Tool")
	assert.Contains(t, out, "42")
}

func TestHookLabelsFallBackToRole(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf)

	h.OnEmitted(context.Background(), events.Emitted{Message: messages.System("be brief")})

	assert.Contains(t, buf.String(), "System")
	assert.Contains(t, buf.String(), "be brief")
}

func TestHookPrintsTransferAndDone(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf)
	ctx := context.Background()

	h.OnTransfer(ctx, events.Transfer{Target: "checkout"})
	h.OnDone(ctx, events.Done{Reason: events.ReasonCompleted, Messages: 4})
	h.OnDone(ctx, events.Done{Reason: events.ReasonCeiling, Messages: 9})

	out := buf.String()
	assert.Contains(t, out, "checkout")
	assert.Contains(t, out, "conversation complete (4 messages)")
	assert.Contains(t, out, "message ceiling reached (9 messages)")
}

func TestHookPrintsErrors(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf)

	h.OnError(context.Background(), events.Error{Err: errors.New("model unreachable")})

	assert.Contains(t, buf.String(), "Error: model unreachable")
}
