package loom

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

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

func contents(msgs []messages.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestVerbsAssembleValidTree(t *testing.T) {
	tree := Seq("support",
		Say("welcome", "Welcome."),
		Ask("intake", "What do you need?").Default("nothing").Into("need"),
		Loop("triage", Generate("draft")).Until(LastMessageContains("done")).MaxPasses(3),
		Sub("recap", Say("inner", "Recap."), flow.WithInit(flow.InheritSystem())),
		If("route", VarSet("need"), Goto("hop", "welcome")),
		Func("note", func(_ context.Context, st *session.State) (*session.State, error) {
			return st, nil
		}),
		Terminate(),
	)

	r, err := New(tree)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"support", "welcome", "intake", "triage", "draft", "recap", "inner",
		"route", "hop", "note", "terminate",
	}, r.Templates())
}

func TestRunDrivesTreeToCompletion(t *testing.T) {
	final, err := Run(context.Background(), Seq("main",
		Say("hello", "Hello."),
		Say("bye", "Goodbye."),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello.", "Goodbye."}, contents(final.Messages()))
}

func TestRunStopsAtTerminate(t *testing.T) {
	final, err := Run(context.Background(), Seq("main",
		Say("first", "First."),
		Terminate(),
		Say("unreached", "Never."),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"First."}, contents(final.Messages()))
}

func TestRunHonorsCeiling(t *testing.T) {
	model := &scriptedModel{replies: []messages.Message{
		messages.New(messages.RoleAssistant, "one"),
		messages.New(messages.RoleAssistant, "two"),
		messages.New(messages.RoleAssistant, "three"),
	}}

	final, err := Run(context.Background(),
		Loop("chat", Generate("draft")).MaxPasses(5),
		WithModel(model),
		WithMaxMessages(2),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, contents(final.Messages()))
	assert.Equal(t, 2, model.calls)
}

func TestRunSeededState(t *testing.T) {
	r := Must(Say("greet", "Hello {{.name}}."))

	st := NewState(WithVars(ContextVars{"name": "Ada"}))
	final, err := r.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello Ada."}, contents(final.Messages()))
}

func TestRunRejectsBadTree(t *testing.T) {
	_, err := Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrConfig)

	_, err = New(Seq("main", Say("dup", "a"), Say("dup", "b")))
	require.ErrorIs(t, err, ErrConfig)
	assert.ErrorContains(t, err, `duplicate template id "dup"`)
}

func TestMustPanics(t *testing.T) {
	assert.Panics(t, func() {
		Must(Seq("main", Goto("hop", "nowhere")))
	})
}
