package solve

import (
	"errors"
	"fmt"
)

// Policy minimums for a viable solve. Mirrors the reconstruction pipeline's
// own thresholds: two registered images and three well-distributed points
// are the floor for a stable initialization.
const (
	MinImages         = 2
	MinEligibleTracks = 3
)

// ErrCancelled reports a solve cut short by cancellation. The project was
// left completely unmodified.
var ErrCancelled = errors.New("solve: cancelled")

// ErrSolveInProgress reports a second solve request while one is running for
// the same project. The request fails fast instead of queuing.
var ErrSolveInProgress = errors.New("solve: already in progress for this project")

// ErrStaleProject marks a solve whose results were discarded because the
// project was edited while the solver ran.
var ErrStaleProject = errors.New("solve: project modified during solve")

// InsufficientDataError reports a project below the policy minimums.
type InsufficientDataError struct {
	Images         int
	EligibleTracks int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("solve: insufficient data: %d image(s) (need %d) and %d eligible track(s) (need %d)",
		e.Images, MinImages, e.EligibleTracks, MinEligibleTracks)
}

// SolveFailedError reports a solver failure (non-convergence, degenerate
// configuration, malformed response). No results were applied. Diagnostic
// carries whatever the solver reported.
type SolveFailedError struct {
	Diagnostic string
	Err        error
}

func (e *SolveFailedError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("solve failed: %s", e.Diagnostic)
	}
	return fmt.Sprintf("solve failed: %v", e.Err)
}

func (e *SolveFailedError) Unwrap() error { return e.Err }
