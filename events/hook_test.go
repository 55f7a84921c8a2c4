package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHook struct {
	emittedCalled  bool
	transferCalled bool
	doneCalled     bool
	errorCalled    bool
	lastEmitted    Emitted
	lastTransfer   Transfer
	lastDone       Done
	lastError      Error
}

func (m *mockHook) OnEmitted(ctx context.Context, ev Emitted) {
	m.emittedCalled = true
	m.lastEmitted = ev
}

func (m *mockHook) OnTransfer(ctx context.Context, ev Transfer) {
	m.transferCalled = true
	m.lastTransfer = ev
}

func (m *mockHook) OnDone(ctx context.Context, ev Done) {
	m.doneCalled = true
	m.lastDone = ev
}

func (m *mockHook) OnError(ctx context.Context, ev Error) {
	m.errorCalled = true
	m.lastError = ev
}

func TestCompositeHook(t *testing.T) {
	ctx := context.Background()
	first := &mockHook{}
	second := &mockHook{}
	hook := NewCompositeHook(first, second)

	runID := uuid.New()

	hook.OnEmitted(ctx, Emitted{RunID: runID, Sequence: 1})
	assert.True(t, first.emittedCalled)
	assert.True(t, second.emittedCalled)
	assert.Equal(t, 1, second.lastEmitted.Sequence)

	hook.OnTransfer(ctx, Transfer{RunID: runID, Target: "triage"})
	assert.True(t, first.transferCalled)
	assert.Equal(t, "triage", second.lastTransfer.Target)

	hook.OnDone(ctx, Done{RunID: runID, Reason: ReasonCompleted})
	assert.True(t, first.doneCalled)
	assert.Equal(t, ReasonCompleted, second.lastDone.Reason)

	hook.OnError(ctx, Error{RunID: runID, Err: errors.New("boom")})
	assert.True(t, first.errorCalled)
	require.Error(t, second.lastError.Err)
	assert.Equal(t, "boom", second.lastError.Err.Error())
}

func TestCompositeHookEmpty(t *testing.T) {
	ctx := context.Background()
	hook := NewCompositeHook()

	require.NotPanics(t, func() {
		hook.OnEmitted(ctx, Emitted{})
		hook.OnTransfer(ctx, Transfer{})
		hook.OnDone(ctx, Done{})
		hook.OnError(ctx, Error{})
	})
}

func TestLoggingHook(t *testing.T) {
	ctx := context.Background()
	hook := LoggingHook()
	runID := uuid.New()

	require.NotPanics(t, func() {
		hook.OnEmitted(ctx, Emitted{RunID: runID, Sequence: 1})
		hook.OnTransfer(ctx, Transfer{RunID: runID, Target: "triage"})
		hook.OnDone(ctx, Done{RunID: runID, Reason: ReasonTerminated})
		hook.OnError(ctx, Error{RunID: runID, Err: errors.New("boom")})
	})
}
