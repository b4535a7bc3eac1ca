package packing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidModel indicates a capacity model violating structural invariants.
	ErrInvalidModel = errors.New("invalid capacity model")
	// ErrAreaExceeded indicates the total pallet area does not fit the combined column area.
	ErrAreaExceeded = errors.New("total pallet area exceeds available carrier area")
	// ErrPairPlacement indicates a pair could not be split across two columns within capacity.
	ErrPairPlacement = errors.New("cannot place pair across distinct columns within capacity")
	// ErrNoFeasibleAssignment indicates the search exhausted every candidate without a valid assignment.
	ErrNoFeasibleAssignment = errors.New("no assignment satisfies the column capacities")
	// ErrTooManyItems indicates the item count exceeds the permutation fallback ceiling.
	ErrTooManyItems = errors.New("item count exceeds the permutation search ceiling")
	// ErrSearchSpaceExceeded indicates the single-item enumeration would exceed the candidate budget.
	ErrSearchSpaceExceeded = errors.New("single placement search space exceeds the candidate budget")
)

// Phase identifies the stage of a solve attempt.
type Phase string

const (
	PhaseAreaCheck Phase = "area-check"
	PhasePairs     Phase = "pair-placement"
	PhaseSingles   Phase = "single-placement"
	PhaseFallback  Phase = "permutation-fallback"
)

// Trace captures the solver state at the point of failure so callers can
// inspect or render it without re-running the search.
type Trace struct {
	Model       string `json:"model"`
	Phase       Phase  `json:"phase"`
	Pair        *Pair  `json:"pair,omitempty"`
	ColumnLoads []int  `json:"columnLoads,omitempty"`
	Candidates  uint64 `json:"candidates,omitempty"`
}

// SolveError is a failed solve attempt together with its trace. It wraps one
// of the sentinel errors above so callers can branch with errors.Is.
type SolveError struct {
	Trace Trace
	err   error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Trace.Model, e.Trace.Phase, e.err)
}

func (e *SolveError) Unwrap() error { return e.err }

// LengthRangeError reports an item length outside the configured bounds.
type LengthRangeError struct {
	Index  int
	Length int
	Min    int
	Max    int
}

func (e *LengthRangeError) Error() string {
	return fmt.Sprintf("pallet %d length %d outside allowed range [%d, %d]", e.Index+1, e.Length, e.Min, e.Max)
}

// Attempt records the failure of a single variant attempt inside a plan.
type Attempt struct {
	Variant string
	Err     error
}

// PlanError aggregates the attempt failures of every variant once the
// planner has run out of configurations to try.
type PlanError struct {
	Attempts []Attempt
}

func (e *PlanError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Variant, a.Err))
	}
	return "no carrier variant could hold the load: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-attempt errors to errors.Is and errors.As.
func (e *PlanError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}
