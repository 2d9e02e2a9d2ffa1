package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpeed indicates a speed multiplier that is not a positive finite number.
	ErrInvalidSpeed = errors.New("sim: speed must be positive")

	// ErrInvalidPosition indicates a black hole requested at a non-finite position.
	ErrInvalidPosition = errors.New("sim: invalid position")

	// ErrPlanetCount indicates a snapshot whose planet list does not match the simulation.
	ErrPlanetCount = errors.New("sim: planet count mismatch")

	// ErrInvalidSnapshot indicates a snapshot carrying non-finite or non-positive values.
	ErrInvalidSnapshot = errors.New("sim: invalid snapshot")
)

// Phase names one step of a tick.
type Phase string

const (
	PhaseOrbits     Phase = "orbits"
	PhaseAbsorption Phase = "absorption"
	PhaseBlackHole  Phase = "black_hole"
	PhaseSunGravity Phase = "sun_gravity"
	PhaseCollisions Phase = "collisions"
)

// PhaseError is a recoverable failure inside one phase of a tick. The
// offending body has been taken out of the simulation and the tick went on.
type PhaseError struct {
	Phase   Phase
	Tick    int64
	Wrapped error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("tick %d %s: %v", e.Tick, e.Phase, e.Wrapped)
}

func (e *PhaseError) Unwrap() error {
	return e.Wrapped
}
