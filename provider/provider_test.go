package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

func TestStatic(t *testing.T) {
	model := Static("always this")

	for range 3 {
		msg, err := model.Send(context.Background(), session.Request{})
		require.NoError(t, err)
		assert.Equal(t, messages.RoleAssistant, msg.Role)
		assert.Equal(t, "always this", msg.Content)
	}
}

func TestScripted(t *testing.T) {
	model := Scripted("first", "second", "third")

	for _, want := range []string{"first", "second", "third"} {
		msg, err := model.Send(context.Background(), session.Request{})
		require.NoError(t, err)
		assert.Equal(t, messages.RoleAssistant, msg.Role)
		assert.Equal(t, want, msg.Content)
	}

	_, err := model.Send(context.Background(), session.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted after 3 calls")
}

func TestScriptedEmpty(t *testing.T) {
	model := Scripted()

	_, err := model.Send(context.Background(), session.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted after 0 calls")
}

func TestEcho(t *testing.T) {
	model := Echo()

	st := session.New()
	st.Append(messages.User("repeat after me"))

	msg, err := model.Send(context.Background(), session.Request{State: st})
	require.NoError(t, err)
	assert.Equal(t, messages.RoleAssistant, msg.Role)
	assert.Equal(t, "repeat after me", msg.Content)
}

func TestEchoEmptyTranscript(t *testing.T) {
	msg, err := Echo().Send(context.Background(), session.Request{State: session.New()})
	require.NoError(t, err)
	assert.Equal(t, messages.RoleAssistant, msg.Role)
	assert.Empty(t, msg.Content)
}

func TestEchoNilState(t *testing.T) {
	_, err := Echo().Send(context.Background(), session.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a state")
}

func TestFunc(t *testing.T) {
	var sawTools []session.ToolSpec
	model := Func(func(_ context.Context, req session.Request) (messages.Message, error) {
		sawTools = req.Tools
		return messages.Assistant("from func"), nil
	})

	msg, err := model.Send(context.Background(), session.Request{
		Tools: []session.ToolSpec{{Name: "weather"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "from func", msg.Content)
	require.Len(t, sawTools, 1)
	assert.Equal(t, "weather", sawTools[0].Name)
}
