// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	SimulationStarted Type = "simulation_started"
	SimulationEnded   Type = "simulation_ended"
	BoundaryCollision Type = "boundary_collision"
	EntityCollision   Type = "entity_collision"
	EntityDestroyed   Type = "entity_destroyed"
	BulletFired       Type = "bullet_fired"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies one registered handler. Cancel removes it from the
// bus; calling Cancel more than once is harmless.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. Handlers run on the
// publishing goroutine in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// Specific event implementations

// CollisionEvent reports two bodies meeting at Position
type CollisionEvent struct {
	BaseEvent
	EntityA  uint64
	EntityB  uint64
	Position physics.Position
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, entityA, entityB uint64, pos physics.Position) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: EntityCollision,
			Source:    source,
		},
		EntityA:  entityA,
		EntityB:  entityB,
		Position: pos,
	}
}

// BoundaryEvent reports a body bouncing off the world boundary
type BoundaryEvent struct {
	BaseEvent
	EntityID uint64
	Position physics.Position
}

// NewBoundaryEvent creates a new boundary collision event
func NewBoundaryEvent(source interface{}, entityID uint64, pos physics.Position) *BoundaryEvent {
	return &BoundaryEvent{
		BaseEvent: BaseEvent{
			EventType: BoundaryCollision,
			Source:    source,
		},
		EntityID: entityID,
		Position: pos,
	}
}

// EntityEvent contains information about a single body. It carries
// EntityDestroyed and BulletFired.
type EntityEvent struct {
	BaseEvent
	EntityID uint64
	Kind     string
	Name     string
}

// NewEntityEvent creates a new entity event
func NewEntityEvent(eventType Type, source interface{}, entityID uint64, kind, name string) *EntityEvent {
	return &EntityEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID: entityID,
		Kind:     kind,
		Name:     name,
	}
}

// SimulationEvent marks the start or end of a run
type SimulationEvent struct {
	BaseEvent
	Name    string
	Elapsed float64
}

// NewSimulationEvent creates a new simulation lifecycle event
func NewSimulationEvent(eventType Type, source interface{}, name string, elapsed float64) *SimulationEvent {
	return &SimulationEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Name:    name,
		Elapsed: elapsed,
	}
}
