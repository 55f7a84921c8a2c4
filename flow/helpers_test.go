package flow

import (
	"context"
	"fmt"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
	"github.com/casualjim/loom/types"
)

// scriptedModel replays canned replies in order and fails when asked for
// more than it holds.
type scriptedModel struct {
	replies []messages.Message
	calls   int
}

func (m *scriptedModel) Send(_ context.Context, _ session.Request) (messages.Message, error) {
	if m.calls >= len(m.replies) {
		return messages.Message{}, fmt.Errorf("scripted model exhausted after %d calls", m.calls)
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply, nil
}

// failingModel always returns the same error.
type failingModel struct {
	err error
}

func (m *failingModel) Send(context.Context, session.Request) (messages.Message, error) {
	return messages.Message{}, m.err
}

// stubPrompter answers every question with the same string.
type stubPrompter struct {
	answer string
	err    error
	asked  []string
}

func (p *stubPrompter) Ask(_ context.Context, _ *session.State, prompt, _ string) (string, error) {
	p.asked = append(p.asked, prompt)
	return p.answer, p.err
}

// recordingSink collects everything forwarded through it.
type recordingSink struct {
	msgs []messages.Message
}

func (s *recordingSink) Forward(_ context.Context, msg messages.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

func newTestState(vars types.ContextVars, seed ...messages.Message) (*session.State, *recordingSink) {
	sink := &recordingSink{}
	st := session.New(
		session.WithVars(vars),
		session.WithDispatcher(&session.Dispatcher{Sink: sink}),
	)
	if len(seed) > 0 {
		st.Append(seed...)
	}
	return st, sink
}

func contents(msgs []messages.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
