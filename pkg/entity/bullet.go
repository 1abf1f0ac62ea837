// pkg/entity/bullet.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// Bullet is a small body fired by a ship. It is free when it has no ship,
// loaded when its ship carries it and in flight after being fired into the
// ship's world.
type Bullet struct {
	body
	ship        *Ship
	bounceCount int
	maxBounces  int
}

// NewBullet creates a free bullet. Its mass always follows from its radius
// and the bullet density.
func NewBullet(position physics.Position, velocity physics.Velocity, radius float64, limits Limits) (*Bullet, error) {
	b, err := newBody(position, velocity, radius, limits.MinBulletRadius, limits.BulletDensity, limits.SpeedLimit)
	if err != nil {
		return nil, fmt.Errorf("new bullet: %w", err)
	}
	return &Bullet{body: b, maxBounces: limits.MaxBounces}, nil
}

// Kind returns KindBullet
func (b *Bullet) Kind() Kind { return KindBullet }

// Ship returns the ship that carries or fired the bullet, or nil
func (b *Bullet) Ship() *Ship { return b.ship }

// BounceCount returns the number of wall bounces since the bullet was loaded
func (b *Bullet) BounceCount() int { return b.bounceCount }

// MaxBounces returns the number of wall bounces the bullet survives
func (b *Bullet) MaxBounces() int { return b.maxBounces }

// IsLoaded reports whether the bullet sits in a ship's magazine
func (b *Bullet) IsLoaded() bool { return b.ship != nil && b.world == nil }

// IsFired reports whether the bullet flies in the world of the ship that
// fired it.
func (b *Bullet) IsFired() bool { return b.ship != nil && b.world != nil }

// SetVelocity sets the bullet's velocity, clamped to its speed limit
func (b *Bullet) SetVelocity(v physics.Velocity) error {
	if b.terminated {
		return terminatedError(b)
	}
	if b.IsLoaded() {
		return preconditionf("bullet %d is loaded on ship %d", b.ID(), b.ship.ID())
	}
	b.setVelocity(v)
	return nil
}

// SetPosition places the bullet at p
func (b *Bullet) SetPosition(p physics.Position) error {
	if !b.terminated && b.IsLoaded() {
		return preconditionf("bullet %d is loaded on ship %d", b.ID(), b.ship.ID())
	}
	return setPosition(b, p)
}

// Move advances the bullet along its velocity for duration
func (b *Bullet) Move(duration float64) error {
	return move(b, duration)
}

func (b *Bullet) planMove(duration float64) (movePlan, error) {
	return b.linearPlan(duration)
}

func (b *Bullet) applyMove(plan movePlan) {
	b.place(plan.position)
}

// BounceOfBoundary reflects the bullet off the walls it touches, or destroys
// it once it has used up its bounces.
func (b *Bullet) BounceOfBoundary() error {
	walls, err := checkBounce(b)
	if err != nil {
		return err
	}
	return b.bounce(walls)
}

func (b *Bullet) bounce(walls physics.Walls) error {
	if b.bounceCount >= b.maxBounces {
		b.Terminate()
		return nil
	}
	b.bounceCount++
	return b.setVelocityVec(physics.Reflect(b.velocity.Vec(), walls))
}

// setFireConfiguration gives a loaded bullet its launch state
func (b *Bullet) setFireConfiguration(position physics.Position, velocity physics.Velocity) {
	b.position = position
	b.setVelocity(velocity)
	b.bounceCount = 0
}

// setLoadConfiguration resets a bullet entering a magazine
func (b *Bullet) setLoadConfiguration(shipPosition physics.Position) {
	b.position = shipPosition
	b.velocity = physics.Velocity{}
	b.bounceCount = 0
}

// Terminate destroys the bullet, removing it from its ship and its world.
// Terminating twice has no further effect.
func (b *Bullet) Terminate() {
	if b.terminated {
		return
	}
	b.terminated = true
	if b.world != nil {
		b.world.detach(b)
	}
	if b.ship != nil {
		b.ship.release(b)
	}
}

func (b *Bullet) String() string {
	return fmt.Sprintf("bullet %d at %v", b.ID(), b.position)
}
