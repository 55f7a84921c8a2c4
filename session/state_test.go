package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/types"
)

func TestNewState(t *testing.T) {
	st := New(
		WithVars(types.ContextVars{"user": "ada"}),
		WithMessages(messages.System("be brief"), messages.User("hello")),
	)

	assert.NotNil(t, st.Stack())
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 0, st.TurnLen(), "seeded messages are inherited")
	assert.Empty(t, st.Emitted())
	assert.Equal(t, "ada", st.Vars().GetString("user"))
}

func TestEmitAppendsAndForwards(t *testing.T) {
	var forwarded []messages.Message
	sink := SinkFunc(func(_ context.Context, msg messages.Message) error {
		forwarded = append(forwarded, msg)
		return nil
	})

	st := New(WithDispatcher(&Dispatcher{Sink: sink}))
	require.NoError(t, st.Emit(context.Background(), messages.Assistant("one")))
	require.NoError(t, st.Emit(context.Background(), messages.Assistant("two")))

	require.Len(t, forwarded, 2)
	assert.Equal(t, "one", forwarded[0].Content)
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 2, st.TurnLen())
}

func TestAppendDoesNotForward(t *testing.T) {
	calls := 0
	sink := SinkFunc(func(context.Context, messages.Message) error {
		calls++
		return nil
	})

	st := New(WithDispatcher(&Dispatcher{Sink: sink}))
	st.Append(messages.Assistant("merged"))

	assert.Zero(t, calls)
	assert.Equal(t, 1, st.Len())
}

func TestEmitWithoutDispatcher(t *testing.T) {
	st := New()
	assert.NoError(t, st.Emit(context.Background(), messages.User("detached")))
	assert.Equal(t, 1, st.Len())
}

func TestJumpLifecycle(t *testing.T) {
	st := New()

	_, ok := st.TakeJump()
	assert.False(t, ok)

	st.SetJump("checkout")
	assert.Equal(t, "checkout", st.PendingJump())

	target, ok := st.TakeJump()
	require.True(t, ok)
	assert.Equal(t, "checkout", target)

	_, ok = st.TakeJump()
	assert.False(t, ok, "TakeJump consumes the target")
}

func TestMessagesReturnsCopy(t *testing.T) {
	st := New(WithMessages(messages.User("hello")))

	got := st.Messages()
	got[0].Content = "mutated"

	fresh := st.Messages()
	assert.Equal(t, "hello", fresh[0].Content)
}

func TestLastMessage(t *testing.T) {
	st := New()
	_, ok := st.LastMessage()
	assert.False(t, ok)

	st.Append(messages.User("first"), messages.Assistant("second"))
	last, ok := st.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
}

func TestDeriveIsolatesParent(t *testing.T) {
	parent := New(
		WithVars(types.ContextVars{"nested": map[string]any{"k": "v"}}),
		WithMessages(messages.System("rules")),
		WithDispatcher(&Dispatcher{}),
	)
	parent.Append(messages.User("question"))

	seed := []messages.Message{parent.Messages()[0].Clone()}
	inner := parent.Derive(seed)

	assert.NotEqual(t, parent.ID(), inner.ID())
	assert.Equal(t, 1, inner.Len())
	assert.Equal(t, 0, inner.TurnLen())
	assert.True(t, inner.Stack().Empty())
	assert.Same(t, parent.Dispatcher(), inner.Dispatcher())

	inner.Vars()["nested"].(map[string]any)["k"] = "changed"
	assert.Equal(t, "v", parent.Vars()["nested"].(map[string]any)["k"], "derived vars are a deep copy")

	inner.Append(messages.Assistant("inner work"))
	assert.Equal(t, 2, parent.Len(), "parent log untouched by inner appends")
	require.Len(t, inner.Emitted(), 1)
	assert.Equal(t, "inner work", inner.Emitted()[0].Content)
}

func TestCloneSharesBookkeepingOwnsData(t *testing.T) {
	st := New(WithVars(types.ContextVars{"k": "v"}))
	st.Append(messages.User("hello").WithMeta(map[string]any{"m": "x"}))
	st.Stack().Push(&BaseFrame{Template: "root"})

	dup := st.Clone()

	assert.Equal(t, st.ID(), dup.ID())
	assert.Same(t, st.Stack(), dup.Stack(), "stack is shared so frames survive state swaps")

	dup.Vars()["k"] = "changed"
	assert.Equal(t, "v", st.Vars()["k"])

	dup.Append(messages.Assistant("extra"))
	assert.Equal(t, 1, st.Len())

	dupMsgs := dup.Messages()
	dupMsgs[0].Meta["m"] = "changed"
	assert.Equal(t, "x", st.Messages()[0].Meta["m"], "message metadata deep copied")
}

func TestDispatcherClone(t *testing.T) {
	sink := SinkFunc(func(context.Context, messages.Message) error { return nil })
	d := &Dispatcher{Sink: sink}

	dup := d.Clone()
	require.NotSame(t, d, dup)
	dup.Model = nil

	assert.NotNil(t, dup.Sink, "collaborators are shared")

	assert.Nil(t, (*Dispatcher)(nil).Clone())
}
