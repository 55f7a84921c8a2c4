package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

// Func adapts a function to the session.ModelSender interface.
type Func func(ctx context.Context, req session.Request) (messages.Message, error)

// Send implements session.ModelSender.
func (f Func) Send(ctx context.Context, req session.Request) (messages.Message, error) {
	return f(ctx, req)
}

// Static returns a sender that answers every call with the same reply.
func Static(reply string) session.ModelSender {
	return Func(func(context.Context, session.Request) (messages.Message, error) {
		return messages.Assistant(reply), nil
	})
}

// Scripted returns a sender that replays the given replies in order, one per
// call. A call past the last reply fails, so a template tree that asks for
// more turns than the script covers surfaces as an error instead of looping
// on a stale answer.
func Scripted(replies ...string) session.ModelSender {
	return &scripted{replies: replies}
}

type scripted struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *scripted) Send(context.Context, session.Request) (messages.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.replies) {
		return messages.Message{}, fmt.Errorf("scripted model exhausted after %d calls", s.calls)
	}
	reply := s.replies[s.calls]
	s.calls++
	return messages.Assistant(reply), nil
}

// Echo returns a sender that answers with the content of the newest
// transcript message. An empty transcript gets an empty assistant message.
func Echo() session.ModelSender {
	return Func(func(_ context.Context, req session.Request) (messages.Message, error) {
		if req.State == nil {
			return messages.Message{}, errors.New("echo model needs a state")
		}
		last, ok := req.State.LastMessage()
		if !ok {
			return messages.Assistant(""), nil
		}
		return messages.Assistant(last.Content), nil
	})
}
