// pkg/engine/listener.go
package engine

import (
	"context"

	"github.com/opd-ai/go-asteroids/pkg/entity"
	"github.com/opd-ai/go-asteroids/pkg/event"
	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// busListener turns the collisions resolved by World.Evolve into counted,
// logged bus events. It runs with the simulation lock held.
type busListener struct {
	sim *Simulation
	ctx context.Context
}

func (l *busListener) BoundaryCollision(b entity.Body, pos physics.Position) {
	s := l.sim
	s.stats.BoundaryCollisions++
	s.logger.Debug(l.ctx, "boundary collision",
		"kind", b.Kind().String(),
		"name", s.NameOf(b),
		"x", pos.X(),
		"y", pos.Y())
	s.EventBus.Publish(event.NewBoundaryEvent(s, uint64(b.ID()), pos))
}

func (l *busListener) ObjectCollision(a, b entity.Body, pos physics.Position) {
	s := l.sim
	s.stats.ObjectCollisions++
	s.logger.Debug(l.ctx, "object collision",
		"first", s.NameOf(a),
		"second", s.NameOf(b),
		"x", pos.X(),
		"y", pos.Y())
	s.EventBus.Publish(event.NewCollisionEvent(s, uint64(a.ID()), uint64(b.ID()), pos))
}
