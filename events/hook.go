package events

import (
	"context"
	"log/slog"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/casualjim/loom/pkg/slogx"
)

// Hook receives engine events in process, as they happen.
//
// There is deliberately no no-op implementation: every consumer decides
// explicitly what to do with each event type, and adding an event forces
// every implementation to take a position on it. Use CompositeHook to fan
// out to several hooks, and LoggingHook when all you want is a log line
// per event.
type Hook interface {
	OnEmitted(context.Context, Emitted)

	OnTransfer(context.Context, Transfer)

	OnDone(context.Context, Done)

	OnError(context.Context, Error)
}

func LoggingHook() Hook {
	return loggingHook{}
}

type loggingHook struct{}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (loggingHook) OnEmitted(ctx context.Context, ev Emitted) {
	slog.InfoContext(ctx, "message emitted", slogx.ByteString("event", mustJSON(ev)))
}

func (loggingHook) OnTransfer(ctx context.Context, ev Transfer) {
	slog.InfoContext(ctx, "control transfer", slogx.ByteString("event", mustJSON(ev)))
}

func (loggingHook) OnDone(ctx context.Context, ev Done) {
	slog.InfoContext(ctx, "run done", slogx.ByteString("event", mustJSON(ev)))
}

func (loggingHook) OnError(ctx context.Context, ev Error) {
	slog.ErrorContext(ctx, "run error", slogx.Error(ev.Err))
}

func NewCompositeHook(hooks ...Hook) Hook {
	return CompositeHook(hooks)
}

// CompositeHook fans each event out to every contained hook, in order. An
// empty composite is a valid hook that drops everything.
type CompositeHook []Hook

func (c CompositeHook) OnEmitted(ctx context.Context, ev Emitted) {
	for h := range slices.Values(c) {
		h.OnEmitted(ctx, ev)
	}
}

func (c CompositeHook) OnTransfer(ctx context.Context, ev Transfer) {
	for h := range slices.Values(c) {
		h.OnTransfer(ctx, ev)
	}
}

func (c CompositeHook) OnDone(ctx context.Context, ev Done) {
	for h := range slices.Values(c) {
		h.OnDone(ctx, ev)
	}
}

func (c CompositeHook) OnError(ctx context.Context, ev Error) {
	for h := range slices.Values(c) {
		h.OnError(ctx, ev)
	}
}
