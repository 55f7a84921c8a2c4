package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
	"github.com/casualjim/loom/types"
)

// scriptedSender replays canned messages and records the tool specs each
// call advertised.
type scriptedSender struct {
	replies []messages.Message
	calls   int
	tools   [][]session.ToolSpec
}

func (s *scriptedSender) Send(_ context.Context, req session.Request) (messages.Message, error) {
	s.tools = append(s.tools, req.Tools)
	if s.calls >= len(s.replies) {
		return messages.Message{}, fmt.Errorf("scripted sender exhausted after %d calls", s.calls)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

type collectorSink struct {
	msgs []messages.Message
}

func (s *collectorSink) Forward(_ context.Context, msg messages.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

func newLoopState(model session.ModelSender, vars types.ContextVars) (*session.State, *collectorSink) {
	sink := &collectorSink{}
	st := session.New(
		session.WithVars(vars),
		session.WithDispatcher(&session.Dispatcher{Model: model, Sink: sink}),
	)
	return st, sink
}

func TestLoopCallThenAnswer(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	model := &scriptedSender{replies: []messages.Message{
		messages.ToolCalls(messages.ToolCall{ID: "call-1", Name: "get_weather", Arguments: `{"city":"utrecht"}`}),
		messages.Assistant("It is sunny in Utrecht."),
	}}
	st, sink := newLoopState(model, nil)

	node := NewLoop("answer").Use(weather)
	st, err := node.Render(context.Background(), st)
	require.NoError(t, err)

	// One control message, one tool result, one prose answer.
	msgs := st.Messages()
	require.Len(t, msgs, 3)

	assert.Equal(t, messages.RoleControl, msgs[0].Role)
	assert.Equal(t, "answer", msgs[0].Sender)

	assert.Equal(t, messages.RoleTool, msgs[1].Role)
	assert.Equal(t, "sunny in utrecht", msgs[1].Content)
	callID, ok := msgs[1].ToolCallID()
	require.True(t, ok)
	assert.Equal(t, "call-1", callID)

	assert.Equal(t, messages.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "It is sunny in Utrecht.", msgs[2].Content)

	// Everything was forwarded in emission order.
	require.Len(t, sink.msgs, 3)

	// The second call still advertised the tool.
	require.Len(t, model.tools, 2)
	require.Len(t, model.tools[1], 1)
	assert.Equal(t, "get_weather", model.tools[1][0].Name)
}

func TestLoopProseImmediately(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	model := &scriptedSender{replies: []messages.Message{
		messages.Assistant("No tools needed."),
	}}
	st, _ := newLoopState(model, nil)

	st, err := NewLoop("answer").Use(weather).Render(context.Background(), st)
	require.NoError(t, err)

	msgs := st.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, messages.RoleAssistant, msgs[0].Role)
	assert.Equal(t, 1, model.calls)
}

func TestLoopMultipleCallsInOneRound(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))
	clock := Must(func() string { return "12:00" }, Name("get_time"))

	model := &scriptedSender{replies: []messages.Message{
		messages.ToolCalls(
			messages.ToolCall{ID: "call-1", Name: "get_weather", Arguments: `{"city":"utrecht"}`},
			messages.ToolCall{ID: "call-2", Name: "get_time", Arguments: `{}`},
		),
		messages.Assistant("Sunny at noon."),
	}}
	st, _ := newLoopState(model, nil)

	st, err := NewLoop("answer").Use(weather, clock).Render(context.Background(), st)
	require.NoError(t, err)

	msgs := st.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, messages.RoleTool, msgs[1].Role)
	assert.Equal(t, messages.RoleTool, msgs[2].Role)
	assert.Equal(t, "12:00", msgs[2].Content)
}

func TestLoopUpdatesVars(t *testing.T) {
	remember := Must(func(city string) types.ContextVars {
		return types.ContextVars{"last_city": city}
	}, Name("remember_city"), Parameters("city"))

	model := &scriptedSender{replies: []messages.Message{
		messages.ToolCalls(messages.ToolCall{ID: "call-1", Name: "remember_city", Arguments: `{"city":"utrecht"}`}),
		messages.Assistant("Noted."),
	}}
	st, _ := newLoopState(model, types.ContextVars{"mood": "curious"})

	st, err := NewLoop("answer").Use(remember).Render(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, "utrecht", st.Vars().GetString("last_city"))
	assert.Equal(t, "curious", st.Vars().GetString("mood"))
}

func TestLoopUnknownTool(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	model := &scriptedSender{replies: []messages.Message{
		messages.ToolCalls(messages.ToolCall{ID: "call-1", Name: "no_such_tool", Arguments: `{}`}),
	}}
	st, _ := newLoopState(model, nil)

	_, err := NewLoop("answer").Use(weather).Render(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool no_such_tool")
	assert.NotErrorIs(t, err, flow.ErrConfig)
}

func TestLoopToolFailure(t *testing.T) {
	wantErr := errors.New("service unavailable")
	flaky := Must(func(string) (string, error) { return "", wantErr }, Name("flaky"), Parameters("q"))

	model := &scriptedSender{replies: []messages.Message{
		messages.ToolCalls(messages.ToolCall{ID: "call-1", Name: "flaky", Arguments: `{"q":"hi"}`}),
	}}
	st, _ := newLoopState(model, nil)

	_, err := NewLoop("answer").Use(flaky).Render(context.Background(), st)
	require.ErrorIs(t, err, wantErr)
}

func TestLoopRoundLimit(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	call := messages.ToolCalls(messages.ToolCall{ID: "call-1", Name: "get_weather", Arguments: `{"city":"utrecht"}`})
	model := &scriptedSender{replies: []messages.Message{call, call, call}}
	st, _ := newLoopState(model, nil)

	_, err := NewLoop("answer").Use(weather).MaxRounds(2).Render(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still requesting tools after 2 rounds")
	assert.Equal(t, 3, model.calls)
}

func TestLoopModelError(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	model := &scriptedSender{}
	st, _ := newLoopState(model, nil)

	_, err := NewLoop("answer").Use(weather).Render(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestLoopNoModel(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))
	st := session.New()

	_, err := NewLoop("answer").Use(weather).Render(context.Background(), st)
	require.ErrorIs(t, err, flow.ErrConfig)
}

func TestLoopValidate(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	tests := []struct {
		name    string
		node    *Loop
		wantErr string
	}{
		{"no tools", NewLoop("bare"), "has no tools"},
		{"bad rounds", NewLoop("zero").Use(weather).MaxRounds(0), "at least one round"},
		{"duplicate tool", NewLoop("dup").Use(weather, weather), "registers tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			require.ErrorIs(t, err, flow.ErrConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, NewLoop("ok").Use(weather).Validate())
}

func TestLoopStackBalanced(t *testing.T) {
	weather := Must(lookupWeather, Name("get_weather"), Parameters("city"))

	model := &scriptedSender{replies: []messages.Message{
		messages.Assistant("done"),
	}}
	st, _ := newLoopState(model, nil)

	st, err := NewLoop("answer").Use(weather).Render(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, st.Stack().Empty())
}
