package entity

import "github.com/opd-ai/go-asteroids/pkg/physics"

//go:generate mockgen -destination=mocks/mock_listener.go -package=mocks github.com/opd-ai/go-asteroids/pkg/entity CollisionListener

// CollisionListener is notified by World.Evolve after each collision it
// resolves. Bodies may already be terminated when the listener runs.
type CollisionListener interface {
	// BoundaryCollision reports a bounce at the point where b touched the wall
	BoundaryCollision(b Body, pos physics.Position)
	// ObjectCollision reports two bodies meeting at pos
	ObjectCollision(a, b Body, pos physics.Position)
}

// ListenerFuncs adapts plain functions to CollisionListener. Nil fields are
// skipped.
type ListenerFuncs struct {
	OnBoundary func(b Body, pos physics.Position)
	OnObject   func(a, b Body, pos physics.Position)
}

// BoundaryCollision calls OnBoundary
func (f ListenerFuncs) BoundaryCollision(b Body, pos physics.Position) {
	if f.OnBoundary != nil {
		f.OnBoundary(b, pos)
	}
}

// ObjectCollision calls OnObject
func (f ListenerFuncs) ObjectCollision(a, b Body, pos physics.Position) {
	if f.OnObject != nil {
		f.OnObject(a, b, pos)
	}
}
