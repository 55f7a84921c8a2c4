package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/session"
)

func TestNew(t *testing.T) {
	s := New(openai.ChatModelGPT4oMini)
	require.NotNil(t, s)
	assert.NotNil(t, s.client)
	assert.Equal(t, openai.ChatModelGPT4oMini, s.model)
	assert.Equal(t, defaultTemperature, s.temperature)
}

func TestModelRegistryShares(t *testing.T) {
	a := Model("shared-model-test")
	b := Model("shared-model-test")
	assert.Same(t, a, b)

	mini := GPT4oMini()
	assert.Equal(t, openai.ChatModelGPT4oMini, mini.model)
}

func TestDefaultModel(t *testing.T) {
	t.Setenv(EnvDefaultModel, "")
	assert.Equal(t, openai.ChatModelGPT4oMini, Default().model)

	t.Setenv(EnvDefaultModel, "default-model-test")
	assert.Equal(t, "default-model-test", Default().model)
}

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Sender {
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
	})

	return New(openai.ChatModelGPT4oMini, option.WithBaseURL(server.URL+"/v1"))
}

func TestSenderSend(t *testing.T) {
	mockResp := openai.ChatCompletion{
		ID: "test-id",
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Content: "Test response",
				},
			},
		},
	}

	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	})

	st := session.New()
	st.Append(messages.System("You are terse."), messages.User("Say hi"))

	msg, err := s.Send(context.Background(), session.Request{State: st})
	require.NoError(t, err)
	assert.Equal(t, messages.RoleAssistant, msg.Role)
	assert.Equal(t, "Test response", msg.Content)
}

func TestSenderSendToolCalls(t *testing.T) {
	mockResp := openai.ChatCompletion{
		ID: "test-id",
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ChatCompletionMessageToolCall{
						{
							ID: "call-1",
							Function: openai.ChatCompletionMessageToolCallFunction{
								Name:      "get_weather",
								Arguments: `{"city":"utrecht"}`,
							},
						},
					},
				},
			},
		},
	}

	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	})

	st := session.New()
	st.Append(messages.User("What's the weather in Utrecht?"))

	msg, err := s.Send(context.Background(), session.Request{State: st})
	require.NoError(t, err)
	assert.Equal(t, messages.RoleControl, msg.Role)

	calls, ok := msg.ToolCalls()
	require.True(t, ok)
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "get_weather", calls[0].Name)
	assert.Equal(t, `{"city":"utrecht"}`, calls[0].Arguments)
}

func TestSenderSendErrors(t *testing.T) {
	t.Run("nil state", func(t *testing.T) {
		s := New(openai.ChatModelGPT4oMini)
		_, err := s.Send(context.Background(), session.Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "needs a state")
	})

	t.Run("api failure", func(t *testing.T) {
		s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		})

		st := session.New()
		st.Append(messages.User("hi"))

		_, err := s.Send(context.Background(), session.Request{State: st})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat completion")
	})

	t.Run("no choices", func(t *testing.T) {
		s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openai.ChatCompletion{ID: "empty"})
		})

		st := session.New()
		st.Append(messages.User("hi"))

		_, err := s.Send(context.Background(), session.Request{State: st})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}

func TestBuildRequest(t *testing.T) {
	s := New(openai.ChatModelGPT4oMini)

	st := session.New()
	st.Append(
		messages.System("You are terse."),
		messages.User("What's the weather?").WithSender("testUser"),
	)

	spec := session.ToolSpec{
		Name:        "get_weather",
		Description: "Looks up the weather",
		Schema:      json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`),
	}

	params, err := s.buildRequest(&session.Request{State: st, Tools: []session.ToolSpec{spec}})
	require.NoError(t, err)

	assert.Equal(t, openai.ChatModelGPT4oMini, string(params.Model.Value))
	assert.Equal(t, int64(1), params.N.Value)
	assert.True(t, params.ParallelToolCalls.Value)
	assert.Equal(t, 0.1, params.Temperature.Value)
	assert.Equal(t, "testUser", params.User.Value)

	msgs := params.Messages.Value
	require.Len(t, msgs, 2)

	systemMsg := msgs[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "You are terse.", systemMsg.Content.Value[0].Text.Value)

	userMsg := msgs[1].(openai.ChatCompletionUserMessageParam)
	assert.Equal(t, "What's the weather?", userMsg.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)

	tools := params.Tools.Value
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ChatCompletionToolTypeFunction, tools[0].Type.Value)
	assert.Equal(t, "get_weather", tools[0].Function.Value.Name.Value)
	assert.Equal(t, "Looks up the weather", tools[0].Function.Value.Description.Value)
	assert.Equal(t, "object", tools[0].Function.Value.Parameters.Value["type"])
}

func TestBuildRequestInvalidSchema(t *testing.T) {
	s := New(openai.ChatModelGPT4oMini)

	st := session.New()
	st.Append(messages.User("hi"))

	specs := []session.ToolSpec{{
		Name:   "broken",
		Schema: json.RawMessage(`{not json`),
	}}

	_, err := s.buildRequest(&session.Request{State: st, Tools: specs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool broken has an invalid schema")
}

func TestBuildRequestNamelessTool(t *testing.T) {
	s := New(openai.ChatModelGPT4oMini)

	st := session.New()
	st.Append(messages.User("hi"))

	_, err := s.buildRequest(&session.Request{State: st, Tools: []session.ToolSpec{{Name: "  "}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool spec without a name")
}

func TestHistoryToOpenAI(t *testing.T) {
	st := session.New()
	st.Append(
		messages.System("Be brief."),
		messages.User("hi").WithSender("sam"),
		messages.Assistant("hello"),
		messages.ToolCalls(messages.ToolCall{ID: "call-1", Name: "get_weather", Arguments: `{"city":"utrecht"}`}),
		messages.ToolResponse("call-1", "get_weather", `{"temp":21}`),
	)

	result, user := historyToOpenAI(st.MessagesIter())

	assert.Equal(t, "sam", user)
	require.Len(t, result, 5)

	systemMsg := result[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Be brief.", systemMsg.Content.Value[0].Text.Value)

	userMsg := result[1].(openai.ChatCompletionUserMessageParam)
	assert.Equal(t, "hi", userMsg.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)

	assistantMsg := result[2].(openai.ChatCompletionAssistantMessageParam)
	require.Len(t, assistantMsg.Content.Value, 1)

	toolCallMsg := result[3].(openai.ChatCompletionMessageParam)
	assert.Equal(t, openai.ChatCompletionMessageParamRoleAssistant, toolCallMsg.Role.Value)
	tcs := toolCallMsg.ToolCalls.Value.([]openai.ChatCompletionMessageToolCallParam)
	require.Len(t, tcs, 1)
	assert.Equal(t, "call-1", tcs[0].ID.Value)
	assert.Equal(t, "get_weather", tcs[0].Function.Value.Name.Value)

	toolMsg := result[4].(openai.ChatCompletionToolMessageParam)
	assert.Equal(t, "call-1", toolMsg.ToolCallID.Value)
}

func TestHistoryToOpenAISkipsBareControl(t *testing.T) {
	st := session.New()
	st.Append(
		messages.User("hi"),
		messages.Control("engine internal"),
	)

	result, _ := historyToOpenAI(st.MessagesIter())
	require.Len(t, result, 1)
}

func TestCompletionToMessage(t *testing.T) {
	t.Run("assistant content", func(t *testing.T) {
		msg, err := completionToMessage(&openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "plain prose"}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, messages.RoleAssistant, msg.Role)
		assert.Equal(t, "plain prose", msg.Content)
	})

	t.Run("tool calls", func(t *testing.T) {
		msg, err := completionToMessage(&openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						ToolCalls: []openai.ChatCompletionMessageToolCall{
							{
								ID: "tool1",
								Function: openai.ChatCompletionMessageToolCallFunction{
									Name:      "test_tool",
									Arguments: `{"param": "value"}`,
								},
							},
						},
					},
				},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, messages.RoleControl, msg.Role)

		calls, ok := msg.ToolCalls()
		require.True(t, ok)
		require.Len(t, calls, 1)
		assert.Equal(t, "tool1", calls[0].ID)
		assert.Equal(t, "test_tool", calls[0].Name)
		assert.Equal(t, `{"param": "value"}`, calls[0].Arguments)
	})

	t.Run("no choices", func(t *testing.T) {
		_, err := completionToMessage(&openai.ChatCompletion{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}
