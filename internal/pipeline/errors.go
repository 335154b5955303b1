package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrToolUnavailable = errors.New("required tool unavailable")
	ErrBuild           = errors.New("build failed")
	ErrNoArtifacts     = errors.New("no artifacts to publish")
)

// A failed leg.
//
// Fatal is set when the failure aborted the run. Both [ErrBuild] and the
// underlying cause are visible to errors.Is.
type BuildError struct {
	Leg   string // Platform label of the leg.
	Fatal bool   // The failure aborted the run.
	Err   error  // Underlying cause.
}

// Returns the error message.
func (e *BuildError) Error() string {
	tier := "soft"
	if e.Fatal {
		tier = "fatal"
	}
	return fmt.Sprintf("%s: leg %s (%s): %v", ErrBuild, e.Leg, tier, e.Err)
}

// Returns [ErrBuild] and the underlying cause.
func (e *BuildError) Unwrap() []error {
	return []error{ErrBuild, e.Err}
}
