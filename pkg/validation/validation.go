// Package validation provides the numeric and naming checks shared by the
// physics core, the scenario configuration and the command line.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits for scenario entity names
const (
	MaxEntityNameLen = 32
)

// Sentinel errors for rejected values. Callers match them with errors.Is.
var (
	ErrNotFinite          = errors.New("value is not a finite number")
	ErrNegativeDuration   = errors.New("duration is negative")
	ErrInvalidRadius      = errors.New("invalid radius")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMass        = errors.New("invalid mass")
	ErrInvalidDimension   = errors.New("invalid dimension")
	ErrInvalidName        = errors.New("invalid entity name")
)

// Entity names are identifiers used by scenario commands
var validEntityNameChars = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

// IsFinite reports whether value is neither NaN nor infinite.
func IsFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// ValidateComponent validates one component of a vector
func ValidateComponent(value float64) error {
	if !IsFinite(value) {
		return fmt.Errorf("%w: %v", ErrNotFinite, value)
	}
	return nil
}

// ValidateDuration validates a time interval used to advance bodies
func ValidateDuration(duration float64) error {
	if math.IsNaN(duration) {
		return fmt.Errorf("%w: %v", ErrNotFinite, duration)
	}
	if duration < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDuration, duration)
	}
	return nil
}

// ValidateRadius checks that radius is finite and not below minimum.
func ValidateRadius(radius, minimum float64) error {
	if !IsFinite(radius) || radius < minimum {
		return fmt.Errorf("%w: %v (min %v)", ErrInvalidRadius, radius, minimum)
	}
	return nil
}

// ValidateOrientation checks that orientation lies in [0, 2π].
func ValidateOrientation(orientation float64) error {
	if !IsFinite(orientation) || orientation < 0 || orientation > 2*math.Pi {
		return fmt.Errorf("%w: %v (must be within [0, 2π])", ErrInvalidOrientation, orientation)
	}
	return nil
}

// ValidateMass checks that mass is finite and at least minimum.
func ValidateMass(mass, minimum float64) error {
	if !IsFinite(mass) || mass < minimum {
		return fmt.Errorf("%w: %v (min %v)", ErrInvalidMass, mass, minimum)
	}
	return nil
}

// ValidateDimension validates a world width or height
func ValidateDimension(dimension float64) error {
	if math.IsNaN(dimension) || dimension <= 0 || dimension > math.MaxFloat64 {
		return fmt.Errorf("%w: %v (must be within (0, %v])", ErrInvalidDimension, dimension, math.MaxFloat64)
	}
	return nil
}

// ValidateEntityName validates and trims a ship or bullet name
func ValidateEntityName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxEntityNameLen {
		return "", fmt.Errorf("%w: %d characters (max %d)", ErrInvalidName, len(name), MaxEntityNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrInvalidName)
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name cannot be only whitespace", ErrInvalidName)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: control characters", ErrInvalidName)
		}
	}

	if !validEntityNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q (only alphanumeric, hyphens, underscores and dots allowed)", ErrInvalidName, trimmed)
	}

	return trimmed, nil
}
