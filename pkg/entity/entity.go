// pkg/entity/entity.go
package entity

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-asteroids/pkg/physics"
	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// ID is a unique identifier for a body
type ID uint64

// Kind tells the concrete type behind a Body
type Kind int

const (
	KindShip Kind = iota
	KindBullet
)

func (k Kind) String() string {
	switch k {
	case KindShip:
		return "ship"
	case KindBullet:
		return "bullet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// AccuracyFactor is the relative tolerance for overlap and contact tests.
const AccuracyFactor = physics.AccuracyFactor

// Firing constants
const (
	BulletSpeed = 250.0
	fireOffset  = 1 + 5*(1-AccuracyFactor)
)

// Body is a circular object that can live in a World. It is implemented by
// *Ship and *Bullet only.
type Body interface {
	ID() ID
	Kind() Kind
	Position() physics.Position
	Velocity() physics.Velocity
	Radius() float64
	Density() float64
	Mass() float64
	SpeedLimit() float64
	World() *World
	IsTerminated() bool

	SetPosition(p physics.Position) error
	SetVelocity(v physics.Velocity) error
	Move(duration float64) error
	TimeToCollisionWithBoundary() float64
	CollisionWithBoundaryPosition() (physics.Position, bool)
	BounceOfBoundary() error
	Terminate()

	base() *body
	planMove(duration float64) (movePlan, error)
	applyMove(plan movePlan)
	bounce(walls physics.Walls) error
}

// Limits holds the physical parameters shared by the bodies of a simulation.
type Limits struct {
	MinShipRadius   float64
	MinBulletRadius float64
	ShipDensity     float64
	BulletDensity   float64
	ThrusterForce   float64
	MaxBounces      int
	SpeedLimit      float64
}

// DefaultLimits returns the standard asteroids parameters
func DefaultLimits() Limits {
	return Limits{
		MinShipRadius:   10,
		MinBulletRadius: 1,
		ShipDensity:     1.42e12,
		BulletDensity:   7.8e12,
		ThrusterForce:   1.1e21,
		MaxBounces:      2,
		SpeedLimit:      physics.SpeedOfLight,
	}
}

// Validate checks that every limit is usable.
func (l Limits) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"min ship radius", l.MinShipRadius},
		{"min bullet radius", l.MinBulletRadius},
		{"ship density", l.ShipDensity},
		{"bullet density", l.BulletDensity},
		{"speed limit", l.SpeedLimit},
	}
	for _, p := range positive {
		if !validation.IsFinite(p.value) || p.value <= 0 {
			return fmt.Errorf("invalid limits: %s must be positive and finite, got %v", p.name, p.value)
		}
	}
	if l.SpeedLimit > physics.SpeedOfLight {
		return fmt.Errorf("invalid limits: speed limit %v exceeds the speed of light", l.SpeedLimit)
	}
	if !validation.IsFinite(l.ThrusterForce) || l.ThrusterForce < 0 {
		return fmt.Errorf("invalid limits: thruster force must be non-negative, got %v", l.ThrusterForce)
	}
	if l.MaxBounces < 0 {
		return fmt.Errorf("invalid limits: max bounces must be non-negative, got %d", l.MaxBounces)
	}
	return nil
}

func circleOf(b Body) physics.Circle {
	return physics.Circle{Center: b.Position().Vec(), Radius: b.Radius()}
}

func isInf(v float64) bool {
	return math.IsInf(v, 1)
}
