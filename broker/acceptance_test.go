package broker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/loom/events"
	"github.com/casualjim/loom/messages"
)

type recordingHook struct {
	mu        sync.Mutex
	wg        *sync.WaitGroup
	emitted   []events.Emitted
	transfers []events.Transfer
	dones     []events.Done
	failures  []events.Error
}

func newRecordingHook() *recordingHook {
	return &recordingHook{}
}

func (r *recordingHook) OnEmitted(ctx context.Context, ev events.Emitted) {
	r.mu.Lock()
	r.emitted = append(r.emitted, ev)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnTransfer(ctx context.Context, ev events.Transfer) {
	r.mu.Lock()
	r.transfers = append(r.transfers, ev)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnDone(ctx context.Context, ev events.Done) {
	r.mu.Lock()
	r.dones = append(r.dones, ev)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnError(ctx context.Context, ev events.Error) {
	r.mu.Lock()
	r.failures = append(r.failures, ev)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func emittedEvent(content string) events.Emitted {
	return events.Emitted{
		RunID:    uuid.New(),
		Node:     "test-node",
		Sequence: 1,
		Message:  messages.Assistant(content).WithSender("test-node"),
	}
}

// brokerFactory is a function that creates a new broker instance for testing
type brokerFactory func(t *testing.T) Broker

// acceptanceTest represents a single acceptance test case
type acceptanceTest struct {
	name string
	test func(t *testing.T, createBroker brokerFactory)
}

// runAcceptanceTests runs all acceptance tests against a broker implementation
func runAcceptanceTests(t *testing.T, name string, factory brokerFactory) {
	tests := []acceptanceTest{
		{"creates unique topics", testUniqueTopics},
		{"reuses existing topics", testReuseTopics},
		{"publishes events to all subscribers", testPublishToAllSubscribers},
		{"handles subscription lifecycle", testSubscriptionLifecycle},
		{"handles context cancellation", testContextCancellation},
		{"handles concurrent operations", testConcurrentOperations},
		{"validates hook requirement", testHookValidation},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", name, tt.name), func(t *testing.T) {
			tt.test(t, factory)
		})
	}
}

func TestBrokerImplementations(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		runAcceptanceTests(t, "Local", func(t *testing.T) Broker {
			return Local()
		})
	})

	t.Run("NATS", func(t *testing.T) {
		runAcceptanceTests(t, "NATS", func(t *testing.T) Broker {
			return NATS(setupNATS(t))
		})
	})
}

func testUniqueTopics(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic1 := broker.Topic(context.Background(), "test1")
	topic2 := broker.Topic(context.Background(), "test2")
	assert.NotEqual(t, topic1, topic2)
}

func testReuseTopics(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic1 := broker.Topic(context.Background(), "test")
	topic2 := broker.Topic(context.Background(), "test")
	assert.Equal(t, topic1, topic2)
}

func testPublishToAllSubscribers(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "test")

	recorder1 := newRecordingHook()
	recorder2 := newRecordingHook()

	ctx := context.Background()
	sub1, err := topic.Subscribe(ctx, recorder1)
	require.NoError(t, err)
	sub2, err := topic.Subscribe(ctx, recorder2)
	require.NoError(t, err)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	var wg sync.WaitGroup
	wg.Add(4) // 2 recorders * 2 events
	recorder1.wg = &wg
	recorder2.wg = &wg

	require.NoError(t, topic.Publish(ctx, emittedEvent("test message")))
	require.NoError(t, topic.Publish(ctx, events.Transfer{RunID: uuid.New(), Target: "triage"}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for events to be processed")
	}

	recorder1.mu.Lock()
	assert.Len(t, recorder1.emitted, 1)
	assert.Len(t, recorder1.transfers, 1)
	recorder1.mu.Unlock()

	recorder2.mu.Lock()
	assert.Len(t, recorder2.emitted, 1)
	assert.Equal(t, "triage", recorder2.transfers[0].Target)
	recorder2.mu.Unlock()
}

func testSubscriptionLifecycle(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "test")

	ctx := context.Background()
	recorder := newRecordingHook()
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())

	// Unsubscribe and wait a moment for unsubscribe to propagate
	sub.Unsubscribe()
	time.Sleep(100 * time.Millisecond)

	err = topic.Publish(ctx, emittedEvent("test message"))
	require.NoError(t, err)

	// Verify event wasn't processed
	recorder.mu.Lock()
	assert.Len(t, recorder.emitted, 0)
	recorder.mu.Unlock()
}

func testContextCancellation(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "test")

	ctx, cancel := context.WithCancel(context.Background())
	recorder := newRecordingHook()
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	// Cancel context and wait a moment for cancellation to propagate
	cancel()
	time.Sleep(100 * time.Millisecond)

	err = topic.Publish(context.Background(), emittedEvent("test message"))
	require.NoError(t, err)

	// Verify event wasn't processed
	recorder.mu.Lock()
	assert.Len(t, recorder.emitted, 0)
	recorder.mu.Unlock()
}

func testConcurrentOperations(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "test")
	ctx := context.Background()

	const numSubscribers = 10
	const numEvents = 100

	recorders := make([]*recordingHook, numSubscribers)
	subs := make([]Subscription, numSubscribers)
	var processWg sync.WaitGroup
	processWg.Add(numSubscribers * numEvents)

	for i := 0; i < numSubscribers; i++ {
		recorders[i] = newRecordingHook()
		recorders[i].wg = &processWg
		sub, err := topic.Subscribe(ctx, recorders[i])
		require.NoError(t, err)
		subs[i] = sub
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	var publishWg sync.WaitGroup
	publishWg.Add(numEvents)
	for i := 0; i < numEvents; i++ {
		go func(i int) {
			defer publishWg.Done()
			err := topic.Publish(ctx, emittedEvent(fmt.Sprintf("message-%d", i)))
			assert.NoError(t, err)
		}(i)
	}

	publishWg.Wait()
	processWg.Wait()

	for _, recorder := range recorders {
		recorder.mu.Lock()
		assert.Len(t, recorder.emitted, numEvents)
		recorder.mu.Unlock()
	}
}

func testHookValidation(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "test")

	_, err := topic.Subscribe(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hook is required")
}
