package events

import (
	"testing"
	"time"
)

// TestPublishSubscribe verifies basic topic delivery.
func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicTask, 10)

	bus.Publish(TopicTask, TaskSpawnedEvent{TaskID: 1, Required: 2, AtTick: 3})

	select {
	case received := <-ch:
		if received.EventType() != EventTypeTaskSpawned {
			t.Errorf("expected event type %q, got %q", EventTypeTaskSpawned, received.EventType())
		}
		if received.Tick() != 3 {
			t.Errorf("expected tick 3, got %d", received.Tick())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
}

// TestTopicIsolation verifies that subscribers only see their own topic.
func TestTopicIsolation(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	taskCh := bus.Subscribe(TopicTask, 10)
	agentCh := bus.Subscribe(TopicAgent, 10)

	bus.Publish(TopicAgent, AgentStateEvent{AgentID: 4, From: "Searching", To: "Working", AtTick: 1})

	select {
	case received := <-agentCh:
		if received.EventType() != EventTypeAgentState {
			t.Errorf("expected agent state event, got %q", received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for agent event")
	}

	select {
	case ev := <-taskCh:
		t.Errorf("task subscriber received foreign event %q", ev.EventType())
	case <-time.After(20 * time.Millisecond):
		// Correct: nothing delivered.
	}
}

// TestSubscribeAll verifies cross-topic delivery in publish order.
func TestSubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	all := bus.SubscribeAll(10)

	bus.Publish(TopicTask, TaskStartedEvent{TaskID: 1, Driver: 2, AtTick: 5})
	bus.Publish(TopicSim, TickStatsEvent{AtTick: 5, Working: 1})

	wantTypes := []string{EventTypeTaskStarted, EventTypeTickStats}
	for _, want := range wantTypes {
		select {
		case received := <-all:
			if received.EventType() != want {
				t.Errorf("expected %q, got %q", want, received.EventType())
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for %q", want)
		}
	}
}

// TestNonBlockingPublish verifies that a full subscriber never blocks publishers.
func TestNonBlockingPublish(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.Subscribe(TopicTask, 1)

	done := make(chan bool)
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(TopicTask, TaskRemovedEvent{TaskID: int64(i), AtTick: i})
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publisher blocked on a full subscriber")
	}
}

// TestCloseIdempotent verifies Close can be called repeatedly and that
// publish after close is a no-op.
func TestCloseIdempotent(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(TopicSim, 1)

	bus.Close()
	bus.Close()

	bus.Publish(TopicSim, TickStatsEvent{AtTick: 1})

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after bus Close")
	}

	// Subscribing after close returns an already-closed channel.
	late := bus.Subscribe(TopicSim, 1)
	if _, ok := <-late; ok {
		t.Error("expected closed channel from post-Close Subscribe")
	}
}

// TestEventTypeStrings pins the wire names consumers key on.
func TestEventTypeStrings(t *testing.T) {
	evs := []struct {
		ev   Event
		want string
	}{
		{TaskSpawnedEvent{}, "task.spawned"},
		{TaskAssignedEvent{}, "task.assigned"},
		{TaskStartedEvent{}, "task.started"},
		{TaskCompletedEvent{}, "task.completed"},
		{TaskRemovedEvent{}, "task.removed"},
		{AgentStateEvent{}, "agent.state"},
		{TickStatsEvent{}, "sim.tick"},
	}
	for _, tt := range evs {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ev.EventType(); got != tt.want {
				t.Errorf("EventType() = %q, want %q", got, tt.want)
			}
		})
	}
}
