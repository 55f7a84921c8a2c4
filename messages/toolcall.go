package messages

import (
	"github.com/goccy/go-json"
)

// Meta keys used by the tool calling protocol. Tool call payloads are stored
// as JSON strings so a transcript survives serialization without the meta map
// degrading into untyped nested values.
const (
	// MetaToolCalls holds the JSON encoded []ToolCall requested by the model
	// on a control message.
	MetaToolCalls = "tool_calls"
	// MetaToolCallID holds the id of the call a tool message responds to.
	MetaToolCallID = "tool_call_id"
	// MetaToolName holds the name of the tool that produced a tool message.
	MetaToolName = "tool_name"
)

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON object the model produced for the tool's parameters.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCalls builds a control message carrying the given calls. Content stays
// empty; assistant prose that accompanies a tool call belongs on its own
// assistant message.
func ToolCalls(calls ...ToolCall) Message {
	payload, err := json.Marshal(calls)
	if err != nil {
		// []ToolCall is three string fields, marshaling cannot fail.
		panic(err)
	}
	return Control("").WithMeta(map[string]any{MetaToolCalls: string(payload)})
}

// ToolCalls decodes the calls carried by a control message. The second
// return is false when the message carries none.
func (m Message) ToolCalls() ([]ToolCall, bool) {
	raw, ok := m.MetaValue(MetaToolCalls)
	if !ok {
		return nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	var calls []ToolCall
	if err := json.Unmarshal([]byte(s), &calls); err != nil {
		return nil, false
	}
	return calls, len(calls) > 0
}

// ToolResponse builds a tool message answering the call with the given id.
func ToolResponse(callID, toolName, content string) Message {
	return ToolResult(content).WithMeta(map[string]any{
		MetaToolCallID: callID,
		MetaToolName:   toolName,
	})
}

// ToolCallID returns the id of the call a tool message answers.
func (m Message) ToolCallID() (string, bool) {
	raw, ok := m.MetaValue(MetaToolCallID)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok && s != ""
}

// ToolName returns the name of the tool that produced a tool message.
func (m Message) ToolName() (string, bool) {
	raw, ok := m.MetaValue(MetaToolName)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok && s != ""
}
