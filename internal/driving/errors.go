package driving

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinels for the error kinds named in SPEC_FULL.md §7. All are internal invariant
// failures that abort the tick; none are recoverable inside this package.
var (
	ErrKinematic             = errors.New("driving: kinematic error")
	ErrSpeedExceeded         = errors.New("driving: speed exceeds clamped limit")
	ErrPositionInvariant     = errors.New("driving: position invariant violated")
	ErrQueueInvariant        = errors.New("driving: queue invariant violated")
	ErrRouterInvariant       = errors.New("driving: router invariant violated")
	ErrIntersectionInvariant = errors.New("driving: intersection invariant violated")
)

// StepError attributes an invariant failure to the car being processed when it
// occurred, so the caller (the top-level scheduler) can log or replay from that point.
type StepError struct {
	Car uuid.UUID
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("driving: car %s: %v", e.Car, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(car uuid.UUID, sentinel error, format string, args ...any) *StepError {
	return &StepError{Car: car, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}
