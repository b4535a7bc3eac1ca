package packing

import (
	"context"
	"errors"
	"fmt"
)

// Variant couples a capacity model with the recovery policy that applies to
// it. PermutationFallback enables the unrestricted full search after a failed
// pair-first attempt; the reference configuration allows it only for the
// single-carrier two-column variant.
type Variant struct {
	Model               CapacityModel `json:"model" yaml:"model"`
	PermutationFallback bool          `json:"permutationFallback" yaml:"permutation_fallback"`
}

// Plan is a successful assignment together with the variant that produced it.
type Plan struct {
	Variant  string
	Result   Result
	Pairs    []Pair
	Singles  []int
	Fallback bool
}

// Planner sequences solve attempts across carrier variants. Recovery is an
// explicit fallthrough here, never hidden retry logic inside the solver: each
// variant is gated by the area check, solved pair-first, optionally retried
// through the permutation fallback, and abandoned for the next variant on
// failure.
type Planner struct {
	solver      *Solver
	columnWidth int
}

// NewPlanner constructs a Planner. columnWidth is the fixed width every item
// and column share.
func NewPlanner(solver *Solver, columnWidth int) *Planner {
	return &Planner{solver: solver, columnWidth: columnWidth}
}

// Plan tries each variant in order and returns the first successful plan.
// When every variant fails it returns a *PlanError aggregating the failure of
// each attempt. Context cancellation aborts immediately and is returned
// as-is.
func (p *Planner) Plan(ctx context.Context, lengths []int, variants []Variant) (*Plan, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no carrier variants configured")
	}

	pairs, singles := PairItems(lengths)
	var attempts []Attempt

	for _, variant := range variants {
		model := variant.Model.Clone()

		if !CheckFeasible(lengths, p.columnWidth, model) {
			attempts = append(attempts, Attempt{
				Variant: model.Name,
				Err: &SolveError{
					Trace: Trace{Model: model.Name, Phase: PhaseAreaCheck, ColumnLoads: model.BaselineLoads()},
					err:   ErrAreaExceeded,
				},
			})
			continue
		}

		result, err := p.solver.Solve(ctx, lengths, pairs, singles, model)
		if err == nil {
			return &Plan{Variant: model.Name, Result: *result, Pairs: pairs, Singles: singles}, nil
		}
		if isContextErr(err) {
			return nil, err
		}
		attempts = append(attempts, Attempt{Variant: model.Name, Err: err})

		if variant.PermutationFallback {
			result, err = p.solver.SolvePermutations(ctx, lengths, variant.Model.Clone())
			if err == nil {
				return &Plan{Variant: model.Name, Result: *result, Pairs: pairs, Singles: singles, Fallback: true}, nil
			}
			if isContextErr(err) {
				return nil, err
			}
			attempts = append(attempts, Attempt{Variant: model.Name, Err: err})
		}
	}

	return nil, &PlanError{Attempts: attempts}
}

// ValidateLengths checks every item length against the configured bounds and
// returns a *LengthRangeError for the first violation. It runs before any
// solve attempt.
func ValidateLengths(lengths []int, minLength, maxLength int) error {
	for idx, length := range lengths {
		if length < minLength || length > maxLength {
			return &LengthRangeError{Index: idx, Length: length, Min: minLength, Max: maxLength}
		}
	}
	return nil
}

// CloneVariants deep-copies a variant slice so stored configuration never
// aliases a running solve.
func CloneVariants(variants []Variant) []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		out[i] = Variant{Model: v.Model.Clone(), PermutationFallback: v.PermutationFallback}
	}
	return out
}

// VariantNames returns the model names in order, for logs and responses.
func VariantNames(variants []Variant) []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Model.Name
	}
	return names
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
