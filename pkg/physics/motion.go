// pkg/physics/motion.go
package physics

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// SpeedOfLight is the default upper bound on the speed of any body.
const SpeedOfLight = 300000.0

// NormalizeAngle maps angle into [0, 2π).
func NormalizeAngle(angle float64) (float64, error) {
	if !validation.IsFinite(angle) {
		return 0, fmt.Errorf("%w: %v", validation.ErrInvalidOrientation, angle)
	}
	a := math.Mod(angle, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a, nil
}

// ApplyThrust returns the velocity reached after a constant force pushes a
// body of the given mass along heading for duration, clamped to speedLimit.
func ApplyThrust(velocity Velocity, heading, force, mass, duration, speedLimit float64) (Velocity, error) {
	if err := validation.ValidateDuration(duration); err != nil {
		return velocity, err
	}
	if force == 0 || duration == 0 {
		return velocity, nil
	}
	if err := validation.ValidateMass(mass, math.SmallestNonzeroFloat64); err != nil {
		return velocity, err
	}

	// Update velocity
	acceleration := force / mass
	next := velocity.Vec().Add(FromAngle(heading, acceleration*duration))

	// Limit speed
	if !next.IsFinite() {
		next = FromAngle(heading, speedLimit)
	}
	v, err := VelocityOf(next)
	if err != nil {
		return velocity, err
	}
	return v.ClampTo(speedLimit), nil
}

// SphereMass returns the mass of a sphere of the given radius and density.
func SphereMass(radius, density float64) float64 {
	return 4.0 / 3.0 * math.Pi * radius * radius * radius * density
}
