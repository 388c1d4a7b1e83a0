package astro

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is by callers that only care about the
// category of failure.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoEvent      = errors.New("event does not occur")
	ErrConvergence  = errors.New("solver did not converge")
)

// InvalidInputError reports a malformed location or calendar field. It is
// returned before any computation starts.
type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// NoEventError reports a rise/set event that does not happen on the requested
// date, e.g. polar night or midnight sun.
type NoEventError struct {
	Event  string
	Reason string
}

func (e *NoEventError) Error() string {
	return fmt.Sprintf("%s: %s", e.Event, e.Reason)
}

func (e *NoEventError) Unwrap() error { return ErrNoEvent }

// ConvergenceError is returned when an iterative solver hits its iteration
// cap before reaching tolerance.
type ConvergenceError struct {
	Event      string
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence after %d iterations (residual %.3g)", e.Event, e.Iterations, e.Residual)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }
