package broker

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/events"
)

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

func forwardToHook(ctx context.Context, ch <-chan events.Event, hook events.Hook) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			switch event := event.(type) {
			case events.Emitted:
				hook.OnEmitted(ctx, event)
			case events.Transfer:
				hook.OnTransfer(ctx, event)
			case events.Done:
				hook.OnDone(ctx, event)
			case events.Error:
				hook.OnError(ctx, event)
			default:
				panic(fmt.Sprintf("unknown event type: %T", event))
			}
		case <-ctx.Done():
			return
		}
	}
}
