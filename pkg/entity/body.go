// pkg/entity/body.go
package entity

import (
	"fmt"
	"math"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-asteroids/pkg/physics"
	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// body contains the state shared by ships and bullets
type body struct {
	basic      ecs.BasicEntity
	position   physics.Position
	velocity   physics.Velocity
	radius     float64
	density    float64
	mass       float64
	speedLimit float64
	world      *World
	terminated bool
}

// movePlan is the state a body will have after a move, computed before any
// body is changed.
type movePlan struct {
	position physics.Position
	velocity physics.Velocity
}

func newBody(position physics.Position, velocity physics.Velocity, radius, minRadius, density, speedLimit float64) (body, error) {
	if err := validation.ValidateRadius(radius, minRadius); err != nil {
		return body{}, err
	}
	if !validation.IsFinite(density) || density <= 0 {
		return body{}, fmt.Errorf("invalid density: %v", density)
	}
	if !validation.IsFinite(speedLimit) || speedLimit <= 0 || speedLimit > physics.SpeedOfLight {
		speedLimit = physics.SpeedOfLight
	}
	mass := physics.SphereMass(radius, density)
	if !validation.IsFinite(mass) {
		return body{}, fmt.Errorf("%w: radius %v and density %v give mass %v", validation.ErrInvalidMass, radius, density, mass)
	}
	return body{
		basic:      ecs.NewBasic(),
		position:   position,
		velocity:   velocity.ClampTo(speedLimit),
		radius:     radius,
		density:    density,
		mass:       mass,
		speedLimit: speedLimit,
	}, nil
}

func (b *body) base() *body { return b }

// ID returns the body's unique identifier
func (b *body) ID() ID { return ID(b.basic.ID()) }

// Position returns the centre of the body
func (b *body) Position() physics.Position { return b.position }

// Velocity returns the body's velocity
func (b *body) Velocity() physics.Velocity { return b.velocity }

// Radius returns the body's radius
func (b *body) Radius() float64 { return b.radius }

// Density returns the body's density
func (b *body) Density() float64 { return b.density }

// Mass returns the body's own mass
func (b *body) Mass() float64 { return b.mass }

// SpeedLimit returns the maximum speed of the body
func (b *body) SpeedLimit() float64 { return b.speedLimit }

// World returns the world holding the body, or nil
func (b *body) World() *World { return b.world }

// IsTerminated reports whether the body has been destroyed
func (b *body) IsTerminated() bool { return b.terminated }

func (b *body) circle() physics.Circle {
	return physics.Circle{Center: b.position.Vec(), Radius: b.radius}
}

// setVelocity stores v, scaled down to the speed limit if needed
func (b *body) setVelocity(v physics.Velocity) {
	b.velocity = v.ClampTo(b.speedLimit)
}

func (b *body) setVelocityVec(v physics.Vector2D) error {
	vel, err := physics.VelocityOf(v)
	if err != nil {
		return err
	}
	b.setVelocity(vel)
	return nil
}

// place moves the centre to p, keeping the world's occupancy table current.
func (b *body) place(p physics.Position) {
	if b.world != nil {
		b.world.relocate(b.ID(), b.position, p)
	}
	b.position = p
}

func (b *body) linearPlan(duration float64) (movePlan, error) {
	p, err := b.position.MoveBy(b.velocity, duration)
	if err != nil {
		return movePlan{}, err
	}
	return movePlan{position: p, velocity: b.velocity}, nil
}

// TimeToCollisionWithBoundary returns the time until the body touches a wall
// of its world, or +Inf when it has no world or is not moving.
func (b *body) TimeToCollisionWithBoundary() float64 {
	if b.world == nil || b.terminated {
		return math.Inf(1)
	}
	return physics.TimeToWall(b.circle(), b.velocity.Vec(), b.world.width, b.world.height)
}

// CollisionWithBoundaryPosition returns the centre of the body at the moment
// it touches a wall. ok is false when that never happens.
func (b *body) CollisionWithBoundaryPosition() (physics.Position, bool) {
	t := b.TimeToCollisionWithBoundary()
	if isInf(t) {
		return physics.Position{}, false
	}
	p, err := b.position.MoveBy(b.velocity, t)
	if err != nil {
		return physics.Position{}, false
	}
	return p, true
}

func (b *body) touchedWalls() physics.Walls {
	if b.world == nil {
		return 0
	}
	return physics.TouchedWalls(b.circle(), b.world.width, b.world.height)
}

// move validates and applies a plan for self, which must embed b.
func move(self Body, duration float64) error {
	if err := validation.ValidateDuration(duration); err != nil {
		return fmt.Errorf("move %s %d: %w", self.Kind(), self.ID(), err)
	}
	if self.IsTerminated() {
		return terminatedError(self)
	}
	plan, err := self.planMove(duration)
	if err != nil {
		return fmt.Errorf("move %s %d: %w", self.Kind(), self.ID(), err)
	}
	if w := self.World(); w != nil && !w.inside(plan.position, self.Radius()) {
		return fmt.Errorf("move %s %d to %v: %w", self.Kind(), self.ID(), plan.position, ErrOutOfBounds)
	}
	self.applyMove(plan)
	return nil
}

// setPosition places self at p after checking it fits in its world.
func setPosition(self Body, p physics.Position) error {
	if self.IsTerminated() {
		return terminatedError(self)
	}
	if w := self.World(); w != nil {
		if err := w.canPlace(self, p); err != nil {
			return err
		}
	}
	self.base().place(p)
	return nil
}

// DistanceBetweenCentres returns the Euclidean distance between the centres
// of a and b.
func DistanceBetweenCentres(a, b Body) (float64, error) {
	if a.IsTerminated() {
		return 0, terminatedError(a)
	}
	if b.IsTerminated() {
		return 0, terminatedError(b)
	}
	return a.Position().DistanceTo(b.Position()), nil
}

// Distance returns the gap between the edges of a and b. It is negative when
// they overlap and 0 for a body and itself.
func Distance(a, b Body) (float64, error) {
	d, err := DistanceBetweenCentres(a, b)
	if err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}
	return d - (a.Radius() + b.Radius()), nil
}

// Overlap reports whether a and b are closer than the tolerance allows. A
// body always overlaps itself.
func Overlap(a, b Body) (bool, error) {
	if a.IsTerminated() {
		return false, terminatedError(a)
	}
	if b.IsTerminated() {
		return false, terminatedError(b)
	}
	return overlap(a, b), nil
}

func overlap(a, b Body) bool {
	return a == b || circleOf(a).Overlaps(circleOf(b))
}

// ApparentlyCollide reports whether a and b are distinct live bodies of the
// same world that touch within the tolerance band.
func ApparentlyCollide(a, b Body) bool {
	if a == b || a.IsTerminated() || b.IsTerminated() {
		return false
	}
	w := a.World()
	if w == nil || w != b.World() {
		return false
	}
	return circleOf(a).Touches(circleOf(b))
}

// approaching reports whether the centres of a and b are getting closer
func approaching(a, b Body, va, vb physics.Velocity) bool {
	dp := a.Position().Vec().Sub(b.Position().Vec())
	dv := va.Vec().Sub(vb.Vec())
	return dv.Dot(dp) < 0
}

// TimeToCollision returns the time after which a and b touch when both keep
// their velocity, or +Inf if they never do. Overlapping bodies have no
// meaningful collision time and yield an *OverlapError.
func TimeToCollision(a, b Body) (float64, error) {
	if a.IsTerminated() {
		return 0, terminatedError(a)
	}
	if b.IsTerminated() {
		return 0, terminatedError(b)
	}
	if overlap(a, b) {
		return 0, &OverlapError{First: a, Second: b}
	}
	return physics.TimeToImpact(circleOf(a), circleOf(b), a.Velocity().Vec(), b.Velocity().Vec()), nil
}

// CollisionPosition returns the point where a and b will touch, or where
// they touch now. ok is false if they never collide.
func CollisionPosition(a, b Body) (pos physics.Position, ok bool, err error) {
	if ApparentlyCollide(a, b) {
		return contactPosition(a, b), true, nil
	}
	t, err := TimeToCollision(a, b)
	if err != nil || isInf(t) {
		return physics.Position{}, false, err
	}
	ca := physics.Circle{Center: a.Position().Vec().Add(a.Velocity().Vec().Scale(t)), Radius: a.Radius()}
	cb := physics.Circle{Center: b.Position().Vec().Add(b.Velocity().Vec().Scale(t)), Radius: b.Radius()}
	pos, err = physics.PositionOf(physics.ContactPoint(ca, cb))
	if err != nil {
		return physics.Position{}, false, err
	}
	return pos, true, nil
}

func contactPosition(a, b Body) physics.Position {
	p, err := physics.PositionOf(physics.ContactPoint(circleOf(a), circleOf(b)))
	if err != nil {
		return a.Position()
	}
	return p
}

func boundaryContactPosition(b Body, walls physics.Walls) physics.Position {
	p, err := physics.PositionOf(physics.WallContactPoint(circleOf(b), walls))
	if err != nil {
		return b.Position()
	}
	return p
}

// checkBounce verifies that self may bounce off a wall and returns the walls
// it touches.
func checkBounce(self Body) (physics.Walls, error) {
	if self.IsTerminated() {
		return 0, terminatedError(self)
	}
	if self.World() == nil {
		return 0, preconditionf("%s %d is not in a world", self.Kind(), self.ID())
	}
	walls := self.base().touchedWalls()
	if walls == 0 {
		return 0, preconditionf("%s %d does not touch a boundary", self.Kind(), self.ID())
	}
	return walls, nil
}
