// pkg/entity/ship.go
package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/opd-ai/go-asteroids/pkg/physics"
	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// Ship is a body that can turn, thrust and fire the bullets it carries.
// Bullets in its table are loaded while they have no world and fired while
// they fly in the ship's world.
type Ship struct {
	body
	orientation   float64
	thrusterOn    bool
	thrusterForce float64
	bullets       map[ID]*Bullet
}

// ShipOption customises a ship at construction
type ShipOption func(*Ship) error

// WithMass sets the ship's mass. Masses below that of a ship of the same
// size made of ship material are not admissible and are ignored.
func WithMass(mass float64) ShipOption {
	return func(s *Ship) error {
		if validation.ValidateMass(mass, s.mass) == nil {
			s.mass = mass
		}
		return nil
	}
}

// WithThrusterForce overrides the default thruster force
func WithThrusterForce(force float64) ShipOption {
	return func(s *Ship) error {
		if !validation.IsFinite(force) || force < 0 {
			return fmt.Errorf("invalid thruster force: %v", force)
		}
		s.thrusterForce = force
		return nil
	}
}

// NewShip creates a ship with no world and an empty magazine
func NewShip(position physics.Position, velocity physics.Velocity, radius, orientation float64, limits Limits, opts ...ShipOption) (*Ship, error) {
	if err := validation.ValidateOrientation(orientation); err != nil {
		return nil, fmt.Errorf("new ship: %w", err)
	}
	b, err := newBody(position, velocity, radius, limits.MinShipRadius, limits.ShipDensity, limits.SpeedLimit)
	if err != nil {
		return nil, fmt.Errorf("new ship: %w", err)
	}

	ship := &Ship{
		body:          b,
		orientation:   orientation,
		thrusterForce: limits.ThrusterForce,
		bullets:       make(map[ID]*Bullet),
	}
	for _, opt := range opts {
		if err := opt(ship); err != nil {
			return nil, fmt.Errorf("new ship: %w", err)
		}
	}
	return ship, nil
}

// Kind returns KindShip
func (s *Ship) Kind() Kind { return KindShip }

// Orientation returns the heading in radians, within [0, 2π]
func (s *Ship) Orientation() float64 { return s.orientation }

// ThrusterActive reports whether the thruster is on
func (s *Ship) ThrusterActive() bool { return s.thrusterOn }

// ThrusterForce returns the force the thruster exerts when on
func (s *Ship) ThrusterForce() float64 { return s.thrusterForce }

// SetThrusterActive switches the thruster on or off
func (s *Ship) SetThrusterActive(active bool) error {
	if s.terminated {
		return terminatedError(s)
	}
	s.thrusterOn = active
	return nil
}

// TotalMass returns the mass of the ship and every bullet in its magazine
func (s *Ship) TotalMass() float64 {
	total := s.mass
	for _, b := range s.bullets {
		if b.world == nil {
			total += b.mass
		}
	}
	return total
}

// Turn rotates the ship by angle radians
func (s *Ship) Turn(angle float64) error {
	if s.terminated {
		return terminatedError(s)
	}
	if !validation.IsFinite(angle) {
		return fmt.Errorf("turn: %w: %v", validation.ErrInvalidOrientation, angle)
	}
	orientation, err := physics.NormalizeAngle(s.orientation + angle)
	if err != nil {
		return fmt.Errorf("turn: %w", err)
	}
	s.orientation = orientation
	return nil
}

// Thrust accelerates the ship along its orientation for duration when the
// thruster is on.
func (s *Ship) Thrust(duration float64) error {
	if s.terminated {
		return terminatedError(s)
	}
	v, err := s.thrusted(s.velocity, duration)
	if err != nil {
		return fmt.Errorf("thrust: %w", err)
	}
	s.velocity = v
	return nil
}

func (s *Ship) thrusted(v physics.Velocity, duration float64) (physics.Velocity, error) {
	if err := validation.ValidateDuration(duration); err != nil {
		return v, err
	}
	if !s.thrusterOn {
		return v, nil
	}
	return physics.ApplyThrust(v, s.orientation, s.thrusterForce, s.TotalMass(), duration, s.speedLimit)
}

// SetVelocity sets the ship's velocity, clamped to its speed limit
func (s *Ship) SetVelocity(v physics.Velocity) error {
	if s.terminated {
		return terminatedError(s)
	}
	s.setVelocity(v)
	return nil
}

// SetPosition moves the ship and its magazine to p
func (s *Ship) SetPosition(p physics.Position) error {
	if err := setPosition(s, p); err != nil {
		return err
	}
	s.centreMagazine()
	return nil
}

// Move advances the ship for duration, then applies thrust over the same
// duration.
func (s *Ship) Move(duration float64) error {
	return move(s, duration)
}

func (s *Ship) planMove(duration float64) (movePlan, error) {
	plan, err := s.linearPlan(duration)
	if err != nil {
		return plan, err
	}
	plan.velocity, err = s.thrusted(s.velocity, duration)
	return plan, err
}

func (s *Ship) applyMove(plan movePlan) {
	s.place(plan.position)
	s.velocity = plan.velocity
	s.centreMagazine()
}

func (s *Ship) centreMagazine() {
	for _, b := range s.bullets {
		if b.world == nil {
			b.position = s.position
		}
	}
}

// BounceOfBoundary reflects the velocity off the walls the ship touches
func (s *Ship) BounceOfBoundary() error {
	walls, err := checkBounce(s)
	if err != nil {
		return err
	}
	return s.bounce(walls)
}

func (s *Ship) bounce(walls physics.Walls) error {
	return s.setVelocityVec(physics.Reflect(s.velocity.Vec(), walls))
}

// Magazine returns the loaded bullets ordered by ID
func (s *Ship) Magazine() []*Bullet {
	return s.bulletsWhere(func(b *Bullet) bool { return b.world == nil })
}

// Fired returns the bullets in flight ordered by ID
func (s *Ship) Fired() []*Bullet {
	return s.bulletsWhere(func(b *Bullet) bool { return b.world != nil })
}

func (s *Ship) bulletsWhere(keep func(*Bullet) bool) []*Bullet {
	result := make([]*Bullet, 0, len(s.bullets))
	for _, b := range s.bullets {
		if keep(b) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// NbBulletsLoaded returns the size of the magazine
func (s *Ship) NbBulletsLoaded() int {
	return len(s.Magazine())
}

// NbBulletsFired returns the number of bullets in flight
func (s *Ship) NbBulletsFired() int {
	return len(s.Fired())
}

// HasLoaded reports whether b is in the magazine
func (s *Ship) HasLoaded(b *Bullet) bool {
	owned, ok := s.bullets[b.ID()]
	return ok && owned == b && b.world == nil
}

// HasFired reports whether b was fired by the ship and is still in flight
func (s *Ship) HasFired(b *Bullet) bool {
	owned, ok := s.bullets[b.ID()]
	return ok && owned == b && b.world != nil
}

// LoadBullet puts b in the magazine. A bullet may be loaded when it lies
// inside the ship, or when it is a bullet this ship fired that is touching
// it again.
func (s *Ship) LoadBullet(b *Bullet) error {
	if err := s.checkLoad(b); err != nil {
		return fmt.Errorf("load bullet: %w", err)
	}
	s.reload(b)
	return nil
}

// LoadBullets loads every bullet, or none if one of them cannot be loaded
func (s *Ship) LoadBullets(bullets ...*Bullet) error {
	for _, b := range bullets {
		if err := s.checkLoad(b); err != nil {
			return fmt.Errorf("load bullets: %w", err)
		}
	}
	for _, b := range bullets {
		s.reload(b)
	}
	return nil
}

func (s *Ship) checkLoad(b *Bullet) error {
	if b == nil {
		return preconditionf("nil bullet")
	}
	if s.terminated {
		return terminatedError(s)
	}
	if b.terminated {
		return terminatedError(b)
	}
	if b.ship != nil && b.ship != s {
		return preconditionf("bullet %d belongs to ship %d", b.ID(), b.ship.ID())
	}
	if b.ship == s && b.world == nil {
		return preconditionf("bullet %d is already loaded", b.ID())
	}
	if b.world != nil && b.world != s.world {
		return preconditionf("bullet %d is in another world", b.ID())
	}
	returning := b.ship == s && ApparentlyCollide(s, b)
	if !returning && !s.circle().Encloses(b.circle()) {
		return preconditionf("bullet %d does not lie within ship %d", b.ID(), s.ID())
	}
	return nil
}

// reload moves b into the magazine without checks
func (s *Ship) reload(b *Bullet) {
	if b.world != nil {
		b.world.detach(b)
	}
	b.ship = s
	s.bullets[b.ID()] = b
	b.setLoadConfiguration(s.position)
}

// UnloadBullet takes b out of the magazine, leaving it free where it is
func (s *Ship) UnloadBullet(b *Bullet) error {
	if s.terminated {
		return terminatedError(s)
	}
	if b == nil || !s.HasLoaded(b) {
		return preconditionf("bullet is not loaded on ship %d", s.ID())
	}
	s.release(b)
	return nil
}

func (s *Ship) release(b *Bullet) {
	delete(s.bullets, b.ID())
	b.ship = nil
}

// FireBullet launches the loaded bullet with the lowest ID along the ship's
// orientation. It returns nil when the ship has no world or nothing to fire.
// A bullet fired into a wall is destroyed; a bullet fired into another body
// is destroyed together with that body.
func (s *Ship) FireBullet() (*Bullet, error) {
	if s.terminated {
		return nil, terminatedError(s)
	}
	w := s.world
	if w == nil {
		return nil, nil
	}
	if w.terminated {
		return nil, fmt.Errorf("fire bullet: world: %w", ErrTerminated)
	}
	magazine := s.Magazine()
	if len(magazine) == 0 {
		return nil, nil
	}
	b := magazine[0]

	offset := physics.FromAngle(s.orientation, fireOffset*(s.radius+b.radius))
	pos, err := physics.PositionOf(s.position.Vec().Add(offset))
	if err != nil {
		b.Terminate()
		return b, nil
	}
	vel, err := physics.VelocityOf(physics.FromAngle(s.orientation, BulletSpeed))
	if err != nil {
		return nil, fmt.Errorf("fire bullet: %w", err)
	}
	b.setFireConfiguration(pos, vel)

	err = w.insert(b)
	var overlapErr *OverlapError
	switch {
	case err == nil:
	case errors.As(err, &overlapErr):
		b.Terminate()
		overlapErr.Second.Terminate()
	case errors.Is(err, ErrOutOfBounds):
		b.Terminate()
	default:
		return nil, fmt.Errorf("fire bullet: %w", err)
	}
	return b, nil
}

// collideWithBullet takes back a bullet this ship fired, or destroys both
func (s *Ship) collideWithBullet(b *Bullet) {
	if b.ship == s {
		s.reload(b)
		return
	}
	s.Terminate()
	b.Terminate()
}

// Terminate destroys the ship and its magazine. Bullets in flight are
// released and stay in the world. Terminating twice has no further effect.
func (s *Ship) Terminate() {
	if s.terminated {
		return
	}
	s.terminated = true
	for _, b := range s.bulletsWhere(func(*Bullet) bool { return true }) {
		if b.world == nil {
			b.Terminate()
		} else {
			s.release(b)
		}
	}
	if s.world != nil {
		s.world.detach(s)
	}
}

func (s *Ship) String() string {
	return fmt.Sprintf("ship %d at %v", s.ID(), s.position)
}
