package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by bodies and worlds. Callers match them with
// errors.Is.
var (
	ErrTerminated   = errors.New("terminated")
	ErrPrecondition = errors.New("precondition violated")
	ErrOutOfBounds  = errors.New("out of world bounds")
	ErrOverlap      = errors.New("bodies overlap")
)

// OverlapError reports two bodies whose centres are closer than the
// tolerance allows. It matches ErrOverlap.
type OverlapError struct {
	First  Body
	Second Body
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s %d overlaps %s %d",
		e.First.Kind(), e.First.ID(), e.Second.Kind(), e.Second.ID())
}

// Is makes errors.Is(err, ErrOverlap) hold for every *OverlapError.
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}

func preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

func terminatedError(b Body) error {
	return fmt.Errorf("%s %d: %w", b.Kind(), b.ID(), ErrTerminated)
}
