package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrNonFinite indicates a body position, velocity or size became NaN or Inf.
	ErrNonFinite = errors.New("physics: non-finite body state")

	// ErrInvalidBody indicates a body was constructed with a non-positive size or distance.
	ErrInvalidBody = errors.New("physics: invalid body parameters")
)

// BodyError ties a physics error to the body it was detected on.
type BodyError struct {
	Body    string
	Wrapped error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Body, e.Wrapped)
}

func (e *BodyError) Unwrap() error {
	return e.Wrapped
}
