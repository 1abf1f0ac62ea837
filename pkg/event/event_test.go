// pkg/event/event_test.go
package event

import (
	"sync"
	"testing"

	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// TestNewEventBus tests the creation of a new event bus
func TestNewEventBus_Creation_ReturnsInitializedBus(t *testing.T) {
	bus := NewEventBus()

	if bus == nil {
		t.Fatal("NewEventBus() returned nil")
	}

	if bus.handlers == nil {
		t.Error("handlers map not initialized")
	}

	if bus.nextID != 1 {
		t.Errorf("expected nextID to be 1, got %d", bus.nextID)
	}
}

func TestBaseEvent_GetType_ReturnsCorrectType(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		source    interface{}
	}{
		{
			name:      "SimulationStarted event",
			eventType: SimulationStarted,
			source:    "duel",
		},
		{
			name:      "BulletFired event",
			eventType: BulletFired,
			source:    123,
		},
		{
			name:      "Empty source",
			eventType: SimulationEnded,
			source:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &BaseEvent{
				EventType: tt.eventType,
				Source:    tt.source,
			}

			if event.GetType() != tt.eventType {
				t.Errorf("GetType() = %v, want %v", event.GetType(), tt.eventType)
			}

			if event.GetSource() != tt.source {
				t.Errorf("GetSource() = %v, want %v", event.GetSource(), tt.source)
			}
		})
	}
}

func TestBusSubscribe_MultipleHandlers_UniqueIDs(t *testing.T) {
	bus := NewEventBus()
	noop := func(e Event) {}

	sub1 := bus.Subscribe(EntityCollision, noop)
	sub2 := bus.Subscribe(EntityCollision, noop)
	_ = bus.Subscribe(BoundaryCollision, noop)

	if sub1 == nil || sub1.Cancel == nil {
		t.Fatal("Subscribe() returned an incomplete subscription")
	}

	if sub1.ID == 0 || sub1.ID == sub2.ID {
		t.Errorf("subscription IDs should be distinct and non-zero, got %d and %d", sub1.ID, sub2.ID)
	}

	bus.mu.RLock()
	collisionHandlers := len(bus.handlers[EntityCollision])
	boundaryHandlers := len(bus.handlers[BoundaryCollision])
	bus.mu.RUnlock()

	if collisionHandlers != 2 {
		t.Errorf("expected 2 handlers for EntityCollision, got %d", collisionHandlers)
	}

	if boundaryHandlers != 1 {
		t.Errorf("expected 1 handler for BoundaryCollision, got %d", boundaryHandlers)
	}
}

func TestBusPublish_WithSubscribers_CallsHandlersInOrder(t *testing.T) {
	bus := NewEventBus()
	var order []int

	bus.Subscribe(EntityDestroyed, func(e Event) { order = append(order, 1) })
	bus.Subscribe(EntityDestroyed, func(e Event) { order = append(order, 2) })
	bus.Subscribe(BulletFired, func(e Event) { order = append(order, 3) })

	bus.Publish(NewEntityEvent(EntityDestroyed, "test", 7, "ship", "alpha"))

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected handlers 1 then 2, got %v", order)
	}
}

func TestBusPublish_NoSubscribers_NoError(t *testing.T) {
	bus := NewEventBus()

	// Should not panic
	bus.Publish(&BaseEvent{EventType: SimulationStarted})
}

func TestSubscriptionCancel_ValidSubscription_RemovesHandler(t *testing.T) {
	bus := NewEventBus()
	handlerCalled := false

	sub := bus.Subscribe(BoundaryCollision, func(e Event) { handlerCalled = true })
	sub.Cancel()
	sub.Cancel()

	bus.mu.RLock()
	handlersAfter := len(bus.handlers[BoundaryCollision])
	bus.mu.RUnlock()

	if handlersAfter != 0 {
		t.Errorf("expected 0 handlers after cancel, got %d", handlersAfter)
	}

	bus.Publish(NewBoundaryEvent("test", 1, physics.MustPosition(0, 5)))

	if handlerCalled {
		t.Error("handler should not be called after cancellation")
	}
}

func TestCancelMultipleSubscriptions_DifferentTypes_OnlyTargetRemoved(t *testing.T) {
	bus := NewEventBus()

	handler1Called := false
	handler2Called := false
	handler3Called := false

	sub1 := bus.Subscribe(EntityCollision, func(e Event) { handler1Called = true })
	_ = bus.Subscribe(EntityCollision, func(e Event) { handler2Called = true })
	_ = bus.Subscribe(BulletFired, func(e Event) { handler3Called = true })

	sub1.Cancel()

	bus.Publish(&BaseEvent{EventType: EntityCollision, Source: "test"})
	bus.Publish(&BaseEvent{EventType: BulletFired, Source: "test"})

	if handler1Called {
		t.Error("handler1 should not be called after cancellation")
	}

	if !handler2Called {
		t.Error("handler2 should be called")
	}

	if !handler3Called {
		t.Error("handler3 should be called")
	}
}

func TestBusSubscribe_ConcurrentAccess_ThreadSafe(t *testing.T) {
	bus := NewEventBus()
	var wg sync.WaitGroup
	handlerCount := 0
	var mu sync.Mutex

	handler := func(e Event) {
		mu.Lock()
		handlerCount++
		mu.Unlock()
	}

	numGoroutines := 10
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			bus.Subscribe(EntityCollision, handler)
		}()
	}
	wg.Wait()

	event := &BaseEvent{EventType: EntityCollision, Source: "test"}
	wg.Add(3)
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			bus.Publish(event)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if expected := numGoroutines * 3; handlerCount != expected {
		t.Errorf("expected %d handler calls, got %d", expected, handlerCount)
	}
}

func TestNewCollisionEvent_ValidParameters_ReturnsCorrectEvent(t *testing.T) {
	pos := physics.MustPosition(500, 500)
	event := NewCollisionEvent("world", 100, 200, pos)

	if event.GetType() != EntityCollision {
		t.Errorf("GetType() = %v, want %v", event.GetType(), EntityCollision)
	}

	if event.EntityA != 100 || event.EntityB != 200 {
		t.Errorf("entities = %d, %d, want 100, 200", event.EntityA, event.EntityB)
	}

	if event.Position != pos {
		t.Errorf("Position = %v, want %v", event.Position, pos)
	}
}

func TestNewEntityEvent_ValidParameters_ReturnsCorrectEvent(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		id        uint64
		kind      string
		label     string
	}{
		{"destroyed ship", EntityDestroyed, 12, "ship", "alpha"},
		{"fired bullet", BulletFired, 13, "bullet", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewEntityEvent(tt.eventType, nil, tt.id, tt.kind, tt.label)

			if event.GetType() != tt.eventType {
				t.Errorf("GetType() = %v, want %v", event.GetType(), tt.eventType)
			}

			if event.EntityID != tt.id || event.Kind != tt.kind || event.Name != tt.label {
				t.Errorf("got %+v", event)
			}
		})
	}
}

func TestNewSimulationEvent_ValidParameters_ReturnsCorrectEvent(t *testing.T) {
	event := NewSimulationEvent(SimulationEnded, "engine", "duel", 12.5)

	if event.GetType() != SimulationEnded {
		t.Errorf("GetType() = %v, want %v", event.GetType(), SimulationEnded)
	}

	if event.Name != "duel" || event.Elapsed != 12.5 {
		t.Errorf("got name %q elapsed %v", event.Name, event.Elapsed)
	}
}
