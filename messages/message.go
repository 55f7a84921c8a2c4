package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/casualjim/loom/pkg/uuidx"
	"github.com/casualjim/loom/types"
)

// Role identifies who, or what, authored a message.
type Role string

const (
	// RoleSystem carries instructions that frame the conversation.
	RoleSystem Role = "system"
	// RoleUser carries input attributed to the human side.
	RoleUser Role = "user"
	// RoleAssistant carries model generated output.
	RoleAssistant Role = "assistant"
	// RoleTool carries the result of an invoked tool back to the model.
	RoleTool Role = "tool"
	// RoleControl carries provider specific payloads, such as requested
	// tool calls, that are part of the transcript but not prose.
	RoleControl Role = "control"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleControl:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Message is a single entry in a conversation transcript.
type Message struct {
	ID        uuid.UUID       `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      map[string]any  `json:"meta,omitempty"`
}

// New returns a message with a fresh ID and timestamp for the given role.
func New(role Role, content string) Message {
	return Message{
		ID:        uuidx.New(),
		Role:      role,
		Content:   content,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// System returns a system role message.
func System(content string) Message { return New(RoleSystem, content) }

// User returns a user role message.
func User(content string) Message { return New(RoleUser, content) }

// Assistant returns an assistant role message.
func Assistant(content string) Message { return New(RoleAssistant, content) }

// ToolResult returns a tool role message carrying an invocation result.
func ToolResult(content string) Message { return New(RoleTool, content) }

// Control returns a control role message.
func Control(content string) Message { return New(RoleControl, content) }

// WithSender returns a copy of the message with the sender set.
func (m Message) WithSender(sender string) Message {
	m.Sender = sender
	return m
}

// WithMeta returns a copy of the message with the given metadata attached.
// The map is stored as is; call Clone first when the caller keeps mutating it.
func (m Message) WithMeta(meta map[string]any) Message {
	m.Meta = meta
	return m
}

// MetaValue returns the metadata value stored under key, when present.
func (m Message) MetaValue(key string) (any, bool) {
	if m.Meta == nil {
		return nil, false
	}
	v, ok := m.Meta[key]
	return v, ok
}

// Clone returns a deep copy of the message. The metadata map and its nested
// maps and slices are copied, so mutating the clone never leaks into the
// original transcript.
func (m Message) Clone() Message {
	m.Meta = types.CloneMap(m.Meta)
	return m
}

// CloneAll deep copies a slice of messages.
func CloneAll(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
