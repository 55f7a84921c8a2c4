package events

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/casualjim/loom/messages"
)

var (
	emittedJSON  = []byte(`{"type":"emitted"}`)
	transferJSON = []byte(`{"type":"transfer"}`)
	doneJSON     = []byte(`{"type":"done"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// Event is the closed set of engine events.
type Event interface {
	event()
}

// Reason says why a run ended.
type Reason string

const (
	// ReasonCompleted means the root template was exhausted.
	ReasonCompleted Reason = "completed"
	// ReasonTerminated means a terminate signal ended the run.
	ReasonTerminated Reason = "terminated"
	// ReasonCeiling means the run hit its message ceiling.
	ReasonCeiling Reason = "ceiling"
)

// Emitted records one conversation message hitting the stream. Sequence is
// the 1-based position of the message within its run.
type Emitted struct {
	RunID     uuid.UUID        `json:"run_id"`
	Node      string           `json:"node,omitempty"`
	Sequence  int              `json:"sequence"`
	Message   messages.Message `json:"message"`
	Timestamp strfmt.DateTime  `json:"timestamp,omitempty"`
}

func (Emitted) event() {}

// MarshalJSON implements custom JSON marshaling for Emitted.
func (e Emitted) MarshalJSON() ([]byte, error) {
	result := emittedJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", e.RunID.String())
	if err != nil {
		return nil, err
	}

	if e.Node != "" {
		result, err = sjson.SetBytes(result, "node", e.Node)
		if err != nil {
			return nil, err
		}
	}

	result, err = sjson.SetBytes(result, "sequence", e.Sequence)
	if err != nil {
		return nil, err
	}

	msgBytes, err := json.Marshal(e.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "message", msgBytes)
	if err != nil {
		return nil, err
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Emitted.
func (e *Emitted) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "emitted" {
		return fmt.Errorf("missing or invalid type, expected 'emitted'")
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := e.RunID.UnmarshalText([]byte(runID.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	if node := gjson.GetBytes(data, "node"); node.Exists() {
		e.Node = node.String()
	}

	e.Sequence = int(gjson.GetBytes(data, "sequence").Int())

	msg := gjson.GetBytes(data, "message")
	if !msg.Exists() {
		return fmt.Errorf("missing required field 'message'")
	}
	if err := json.Unmarshal([]byte(msg.Raw), &e.Message); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := e.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// Transfer records the runner servicing a jump: every frame has unwound and
// the run restarted at Target.
type Transfer struct {
	RunID     uuid.UUID       `json:"run_id"`
	Target    string          `json:"target"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Transfer) event() {}

// MarshalJSON implements custom JSON marshaling for Transfer.
func (t Transfer) MarshalJSON() ([]byte, error) {
	result := transferJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", t.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "target", t.Target)
	if err != nil {
		return nil, err
	}

	if !t.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", t.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Transfer.
func (t *Transfer) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "transfer" {
		return fmt.Errorf("missing or invalid type, expected 'transfer'")
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := t.RunID.UnmarshalText([]byte(runID.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	target := gjson.GetBytes(data, "target")
	if !target.Exists() {
		return fmt.Errorf("missing required field 'target'")
	}
	t.Target = target.String()

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := t.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// Done records the end of a run.
type Done struct {
	RunID     uuid.UUID       `json:"run_id"`
	Reason    Reason          `json:"reason"`
	Messages  int             `json:"messages"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Done) event() {}

// MarshalJSON implements custom JSON marshaling for Done.
func (d Done) MarshalJSON() ([]byte, error) {
	result := doneJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", d.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "reason", string(d.Reason))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "messages", d.Messages)
	if err != nil {
		return nil, err
	}

	if !d.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", d.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Done.
func (d *Done) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "done" {
		return fmt.Errorf("missing or invalid type, expected 'done'")
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := d.RunID.UnmarshalText([]byte(runID.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	reason := gjson.GetBytes(data, "reason")
	if !reason.Exists() {
		return fmt.Errorf("missing required field 'reason'")
	}
	d.Reason = Reason(reason.String())

	d.Messages = int(gjson.GetBytes(data, "messages").Int())

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := d.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// Error records a run failing with an error.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) event() {}

// Error implements the error interface so an Error event can travel as a
// plain error value.
func (e Error) Error() string {
	errStr := "<nil>"
	if e.Err != nil {
		errStr = e.Err.Error()
	}
	return fmt.Sprintf("%s run_id=%s", errStr, e.RunID)
}

// MarshalJSON implements custom JSON marshaling for Error.
func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", e.RunID.String())
	if err != nil {
		return nil, err
	}

	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Error.
func (e *Error) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "error" {
		return fmt.Errorf("missing or invalid type, expected 'error'")
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := e.RunID.UnmarshalText([]byte(runID.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := e.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// ToJSON encodes any event with its type discriminator.
func ToJSON(event Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("cannot encode a nil event")
	}
	return json.Marshal(event)
}

// FromJSON routes on the "type" discriminator and decodes the matching
// event type.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch typ := gjson.GetBytes(data, "type").String(); typ {
	case "emitted":
		var e Emitted
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	case "transfer":
		var t Transfer
		if err := t.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return t, nil
	case "done":
		var d Done
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", typ)
	}
}
