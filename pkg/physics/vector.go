// pkg/physics/vector.go
package physics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// Vector2D represents a 2D vector with x and y components
type Vector2D struct {
	X float64
	Y float64
}

func (v Vector2D) point() r2.Point {
	return r2.Point(v)
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D(v.point().Add(other.point()))
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D(v.point().Sub(other.point()))
}

// Scale multiplies the vector by a scalar value
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D(v.point().Mul(factor))
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return v.point().Norm()
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector2D) LengthSquared() float64 {
	return v.point().Dot(v.point())
}

// Distance returns the distance between two vectors
func (v Vector2D) Distance(other Vector2D) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Dot returns the dot product of two vectors
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.point().Dot(other.point())
}

// IsFinite reports whether both components are finite.
func (v Vector2D) IsFinite() bool {
	return validation.IsFinite(v.X) && validation.IsFinite(v.Y)
}

// FromAngle creates a vector from an angle and magnitude
func FromAngle(angle float64, magnitude float64) Vector2D {
	return Vector2D{
		X: magnitude * math.Cos(angle),
		Y: magnitude * math.Sin(angle),
	}
}

func validateComponents(x, y float64) error {
	if err := validation.ValidateComponent(x); err != nil {
		return fmt.Errorf("x component: %w", err)
	}
	if err := validation.ValidateComponent(y); err != nil {
		return fmt.Errorf("y component: %w", err)
	}
	return nil
}

// Position is the location of a body centre. It is comparable and safe to use
// as a map key; two positions are equal when both components are equal.
type Position struct {
	x, y float64
}

// NewPosition creates a position from two finite components.
func NewPosition(x, y float64) (Position, error) {
	if err := validateComponents(x, y); err != nil {
		return Position{}, fmt.Errorf("invalid position: %w", err)
	}
	return Position{x: x, y: y}, nil
}

// MustPosition is NewPosition for literals known to be valid. It panics on
// a non-finite component.
func MustPosition(x, y float64) Position {
	p, err := NewPosition(x, y)
	if err != nil {
		panic(err)
	}
	return p
}

// PositionOf converts a vector into a position.
func PositionOf(v Vector2D) (Position, error) {
	return NewPosition(v.X, v.Y)
}

// X returns the x component
func (p Position) X() float64 { return p.x }

// Y returns the y component
func (p Position) Y() float64 { return p.y }

// Vec returns the position as a vector
func (p Position) Vec() Vector2D { return Vector2D{X: p.x, Y: p.y} }

// DistanceTo returns the Euclidean distance between two positions
func (p Position) DistanceTo(other Position) float64 {
	return p.Vec().Distance(other.Vec())
}

// MoveBy returns the position reached after travelling with velocity for
// duration.
func (p Position) MoveBy(velocity Velocity, duration float64) (Position, error) {
	if err := validation.ValidateDuration(duration); err != nil {
		return Position{}, err
	}
	return PositionOf(p.Vec().Add(velocity.Vec().Scale(duration)))
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.x, p.y)
}

// Velocity is a rate of change of position in units per second.
type Velocity struct {
	x, y float64
}

// NewVelocity creates a velocity from two finite components.
func NewVelocity(x, y float64) (Velocity, error) {
	if err := validateComponents(x, y); err != nil {
		return Velocity{}, fmt.Errorf("invalid velocity: %w", err)
	}
	return Velocity{x: x, y: y}, nil
}

// MustVelocity is NewVelocity for literals known to be valid. It panics on
// a non-finite component.
func MustVelocity(x, y float64) Velocity {
	v, err := NewVelocity(x, y)
	if err != nil {
		panic(err)
	}
	return v
}

// VelocityOf converts a vector into a velocity.
func VelocityOf(v Vector2D) (Velocity, error) {
	return NewVelocity(v.X, v.Y)
}

// X returns the x component
func (v Velocity) X() float64 { return v.x }

// Y returns the y component
func (v Velocity) Y() float64 { return v.y }

// Vec returns the velocity as a vector
func (v Velocity) Vec() Vector2D { return Vector2D{X: v.x, Y: v.y} }

// Speed returns the magnitude of the velocity
func (v Velocity) Speed() float64 {
	return math.Hypot(v.x, v.y)
}

// ClampTo scales the velocity down to limit when its speed exceeds limit,
// keeping its direction.
func (v Velocity) ClampTo(limit float64) Velocity {
	speed := v.Speed()
	if speed <= limit {
		return v
	}
	return Velocity{x: v.x * limit / speed, y: v.y * limit / speed}
}

func (v Velocity) String() string {
	return fmt.Sprintf("<%g, %g>", v.x, v.y)
}
