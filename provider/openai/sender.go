package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/pkg/jsonx"
	"github.com/casualjim/loom/session"
)

const defaultTemperature = 0.1

// Sender performs chat completions against the OpenAI API. It is safe for
// concurrent use; one sender can serve many runs.
type Sender struct {
	client      *openai.Client
	model       string
	temperature float64
}

var _ session.ModelSender = (*Sender)(nil)

// New creates a sender for the given model name. Client behavior, including
// the API key, base URL and timeouts, is controlled through the SDK's
// request options. Without an explicit key the SDK reads OPENAI_API_KEY.
func New(model string, options ...option.RequestOption) *Sender {
	return &Sender{
		client:      openai.NewClient(options...),
		model:       model,
		temperature: defaultTemperature,
	}
}

// WithTemperature sets the sampling temperature for subsequent calls.
func (s *Sender) WithTemperature(temperature float64) *Sender {
	s.temperature = temperature
	return s
}

// Send implements session.ModelSender. It performs a single non streaming
// completion over the request's transcript. Prose answers come back as an
// assistant message, tool call answers as a control message.
func (s *Sender) Send(ctx context.Context, req session.Request) (messages.Message, error) {
	if req.State == nil {
		return messages.Message{}, errors.New("completion request needs a state")
	}

	params, err := s.buildRequest(&req)
	if err != nil {
		return messages.Message{}, err
	}

	chat, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return messages.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	return completionToMessage(chat)
}

func (s *Sender) buildRequest(req *session.Request) (openai.ChatCompletionNewParams, error) {
	result, user := historyToOpenAI(req.State.MessagesIter())

	tools, err := toolsToOpenAI(req.Tools)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(result),
		Model:       openai.F(s.model),
		N:           openai.Int(1),
		Temperature: openai.Float(s.temperature),
	}
	if len(tools) > 0 {
		params.Tools = openai.F(tools)
		params.ParallelToolCalls = openai.Bool(true)
	}
	if strings.TrimSpace(user) != "" {
		params.User = openai.String(user)
	}

	return params, nil
}

// historyToOpenAI converts a transcript into request messages. The second
// return is the sender of the newest user message, forwarded as the
// request's end user identifier.
func historyToOpenAI(seq iter.Seq[messages.Message]) ([]openai.ChatCompletionMessageParamUnion, string) {
	var result []openai.ChatCompletionMessageParamUnion
	var user string
	for msg := range seq {
		switch msg.Role {
		case messages.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case messages.RoleUser:
			if msg.Sender != "" {
				user = msg.Sender
			}
			result = append(result, openai.UserMessageParts(openai.TextPart(msg.Content)))
		case messages.RoleAssistant:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			if msg.Content != "" {
				am.Content.Value = append(am.Content.Value, openai.TextPart(msg.Content))
			}
			result = append(result, am)
		case messages.RoleTool:
			callID, _ := msg.ToolCallID()
			result = append(result, openai.ToolMessage(callID, msg.Content))
		case messages.RoleControl:
			calls, ok := msg.ToolCalls()
			if !ok {
				// Control payloads other than tool calls stay engine internal.
				continue
			}
			tcd := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
			for i, tc := range calls {
				tcd[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   openai.String(tc.ID),
					Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
					Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      openai.String(tc.Name),
						Arguments: openai.String(tc.Arguments),
					}),
				}
			}
			result = append(result, openai.ChatCompletionMessageParam{
				Role:      openai.F(openai.ChatCompletionMessageParamRoleAssistant),
				ToolCalls: openai.F[any](tcd),
			})
		}
	}
	return result, user
}

func toolsToOpenAI(specs []session.ToolSpec) ([]openai.ChatCompletionToolParam, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	tools := make([]openai.ChatCompletionToolParam, len(specs))
	for i, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, errors.New("tool spec without a name")
		}

		def := openai.FunctionDefinitionParam{
			Name: openai.String(spec.Name),
		}
		if strings.TrimSpace(spec.Description) != "" {
			def.Description = openai.String(spec.Description)
		}
		if len(spec.Schema) > 0 {
			parameters, err := jsonx.ToDynamicJSON(spec.Schema)
			if err != nil {
				return nil, fmt.Errorf("tool %s has an invalid schema: %w", spec.Name, err)
			}
			def.Parameters = openai.F(shared.FunctionParameters(parameters))
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(def),
		}
	}
	return tools, nil
}

func completionToMessage(chat *openai.ChatCompletion) (messages.Message, error) {
	if len(chat.Choices) == 0 {
		return messages.Message{}, errors.New("chat completion returned no choices")
	}

	choice := chat.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		calls := make([]messages.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			calls[i] = messages.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
		return messages.ToolCalls(calls...), nil
	}
	return messages.Assistant(choice.Content), nil
}
