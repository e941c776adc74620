package history

import (
	"errors"
)

// Sentinel kinds for engine errors. These allow errors.Is/As from callers.
var (
	// ErrEngineNotRun is returned when learning curves are requested before
	// any sweep has executed. This is a programming-contract violation.
	ErrEngineNotRun = errors.New("engine not run")

	// ErrNonMonotonicTimestamps is returned when the match list is not in
	// nondecreasing timestamp order.
	ErrNonMonotonicTimestamps = errors.New("non-monotonic match timestamps")

	// ErrDuplicateMatchID is returned when two matches share an id.
	ErrDuplicateMatchID = errors.New("duplicate match id")

	// ErrAborted is returned when the caller cancels between sweeps.
	ErrAborted = errors.New("run aborted between sweeps")

	// ErrUnknownCompetitor is returned for ids absent from the registry.
	ErrUnknownCompetitor = errors.New("unknown competitor")
)
