package physics

import "errors"

var (
	// ErrConfiguration marks missing or inconsistent inputs: unset
	// parameters, mismatched array sizes, malformed density profiles
	ErrConfiguration = errors.New("configuration error")
	// ErrCapacity marks a layer count or production height bin count beyond
	// the fixed per-cell scratch capacity
	ErrCapacity = errors.New("capacity exceeded")
	// ErrInconsistentTransition is returned when the direct and expanded
	// transition matrices disagree and the engine is set to abort
	ErrInconsistentTransition = errors.New("transition matrix cross-check failed")
)
