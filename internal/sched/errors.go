package sched

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTask is matched by every *ValidationError.
	ErrInvalidTask = errors.New("invalid task")

	ErrUnknownPolicy = errors.New("unknown policy")
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrPolicyParam is returned when a parameter does not apply to the active
	// policy or is out of range.
	ErrPolicyParam = errors.New("invalid policy parameter")

	ErrRunnerStopped = errors.New("runner stopped")
)

// ValidationError names the task field that was rejected.
type ValidationError struct {
	Field  string
	Value  int64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %s=%d: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTask
}
