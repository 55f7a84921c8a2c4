package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/casualjim/loom/broker"
	"github.com/casualjim/loom/events"
	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/pkg/slogx"
	"github.com/casualjim/loom/session"
)

// errCeilingReached unwinds the render chain when the run's message budget
// is spent. It is a stop condition, not a failure, so Run translates it into
// a warning and a nil error.
var errCeilingReached = errors.New("message ceiling reached")

// runSink is the dispatcher sink for a single run. One is created per Run
// call so counters never leak between runs sharing a Runner.
type runSink struct {
	runID   uuid.UUID
	ceiling int
	count   int
	hook    events.Hook
	topic   broker.Topic
	next    []session.Sink
}

// Forward implements session.Sink. The message is counted, announced and
// passed downstream; when it is the last one the ceiling allows, the ceiling
// sentinel is returned after delivery so exactly ceiling messages get out.
func (s *runSink) Forward(ctx context.Context, msg messages.Message) error {
	if s.ceiling > 0 && s.count >= s.ceiling {
		return errCeilingReached
	}
	s.count++

	ev := events.Emitted{
		RunID:     s.runID,
		Node:      msg.Sender,
		Sequence:  s.count,
		Message:   msg,
		Timestamp: strfmt.DateTime(time.Now()),
	}
	s.hook.OnEmitted(ctx, ev)
	s.publish(ctx, ev)

	for _, next := range s.next {
		if err := next.Forward(ctx, msg); err != nil {
			return err
		}
	}

	if s.ceiling > 0 && s.count >= s.ceiling {
		return errCeilingReached
	}
	return nil
}

func (s *runSink) transfer(ctx context.Context, target string) {
	ev := events.Transfer{
		RunID:     s.runID,
		Target:    target,
		Timestamp: strfmt.DateTime(time.Now()),
	}
	s.hook.OnTransfer(ctx, ev)
	s.publish(ctx, ev)
}

func (s *runSink) done(ctx context.Context, reason events.Reason) {
	ev := events.Done{
		RunID:     s.runID,
		Reason:    reason,
		Messages:  s.count,
		Timestamp: strfmt.DateTime(time.Now()),
	}
	s.hook.OnDone(ctx, ev)
	s.publish(ctx, ev)
}

func (s *runSink) fail(ctx context.Context, err error) {
	ev := events.Error{
		RunID:     s.runID,
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	}
	s.hook.OnError(ctx, ev)
	s.publish(ctx, ev)
}

// publish hands the event to the broker topic when one is wired. Delivery
// problems are logged, not propagated: the event stream is observability,
// the run does not depend on it.
func (s *runSink) publish(ctx context.Context, ev events.Event) {
	if s.topic == nil {
		return
	}
	if err := s.topic.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish event", slogx.Run(s.runID.String()), slogx.Error(err))
	}
}
