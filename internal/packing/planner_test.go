package packing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFallsThroughToLargerVariant(t *testing.T) {
	variants := []Variant{
		{Model: twoColumns("van", 1000)},
		{Model: twoColumns("semi-trailer", 13300)},
	}
	planner := NewPlanner(NewSolver(), 1200)

	plan, err := planner.Plan(context.Background(), []int{2000, 2000, 2000}, variants)
	require.NoError(t, err)

	assert.Equal(t, "semi-trailer", plan.Variant)
	assert.False(t, plan.Fallback)
	assert.Equal(t, 4000, plan.Result.MaxLoad)
	assert.Equal(t, []Pair{{A: 0, B: 1}}, plan.Pairs)
	assert.Equal(t, []int{2}, plan.Singles)
}

func TestPlanAreaGateSkipsSolve(t *testing.T) {
	variants := []Variant{{Model: twoColumns("van", 1000)}}
	planner := NewPlanner(NewSolver(), 1200)

	_, err := planner.Plan(context.Background(), []int{3000}, variants)
	require.Error(t, err)

	var planErr *PlanError
	require.ErrorAs(t, err, &planErr)
	require.Len(t, planErr.Attempts, 1)
	assert.Equal(t, "van", planErr.Attempts[0].Variant)
	assert.ErrorIs(t, planErr.Attempts[0].Err, ErrAreaExceeded)

	var solveErr *SolveError
	require.ErrorAs(t, planErr.Attempts[0].Err, &solveErr)
	assert.Equal(t, PhaseAreaCheck, solveErr.Trace.Phase)
}

func TestPlanPermutationFallbackRescue(t *testing.T) {
	model := CapacityModel{
		Name: "asymmetric",
		Columns: []Column{
			{Capacity: 5000},
			{Capacity: 4000},
		},
	}
	variants := []Variant{{Model: model, PermutationFallback: true}}
	planner := NewPlanner(NewSolver(), 1200)

	plan, err := planner.Plan(context.Background(), []int{2000, 2000, 5000}, variants)
	require.NoError(t, err)

	assert.Equal(t, "asymmetric", plan.Variant)
	assert.True(t, plan.Fallback)
	assert.Equal(t, 5000, plan.Result.MaxLoad)
}

func TestPlanAggregatesAllAttempts(t *testing.T) {
	// The paired 2000s leave no column for the 5000 item, and the 3900
	// column is too tight for any greedy permutation either. The van fails
	// the area gate outright.
	asymmetric := CapacityModel{
		Name: "asymmetric",
		Columns: []Column{
			{Capacity: 5100},
			{Capacity: 3900},
		},
	}
	variants := []Variant{
		{Model: asymmetric, PermutationFallback: true},
		{Model: twoColumns("van", 1000)},
	}
	planner := NewPlanner(NewSolver(), 1200)

	_, err := planner.Plan(context.Background(), []int{2000, 2000, 5000}, variants)
	require.Error(t, err)

	var planErr *PlanError
	require.ErrorAs(t, err, &planErr)
	require.Len(t, planErr.Attempts, 3)
	assert.Equal(t, "asymmetric", planErr.Attempts[0].Variant)
	assert.ErrorIs(t, planErr.Attempts[0].Err, ErrNoFeasibleAssignment)
	assert.Equal(t, "asymmetric", planErr.Attempts[1].Variant)
	assert.ErrorIs(t, planErr.Attempts[1].Err, ErrNoFeasibleAssignment)
	assert.Equal(t, "van", planErr.Attempts[2].Variant)
	assert.ErrorIs(t, planErr.Attempts[2].Err, ErrAreaExceeded)

	assert.ErrorIs(t, err, ErrNoFeasibleAssignment)
	assert.ErrorIs(t, err, ErrAreaExceeded)
}

func TestPlanNoVariantsConfigured(t *testing.T) {
	planner := NewPlanner(NewSolver(), 1200)

	_, err := planner.Plan(context.Background(), []int{1000}, nil)
	require.Error(t, err)
}

func TestPlanReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	variants := []Variant{{Model: twoColumns("semi-trailer", 13300)}}
	planner := NewPlanner(NewSolver(), 1200)

	_, err := planner.Plan(ctx, []int{1000, 2000}, variants)
	require.ErrorIs(t, err, context.Canceled)

	var planErr *PlanError
	assert.False(t, errors.As(err, &planErr))
}

func TestPlanDoesNotMutateVariants(t *testing.T) {
	variants := []Variant{{Model: twoColumns("semi-trailer", 13300)}}
	planner := NewPlanner(NewSolver(), 1200)

	_, err := planner.Plan(context.Background(), []int{2000, 2000}, variants)
	require.NoError(t, err)

	assert.Equal(t, twoColumns("semi-trailer", 13300), variants[0].Model)
}

func TestValidateLengths(t *testing.T) {
	require.NoError(t, ValidateLengths([]int{800, 13060}, 800, 13060))

	err := ValidateLengths([]int{800, 700}, 800, 13060)
	var rangeErr *LengthRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 1, rangeErr.Index)
	assert.Equal(t, 700, rangeErr.Length)
}

func TestCloneVariantsIsDeep(t *testing.T) {
	original := []Variant{{Model: twoColumns("semi-trailer", 13300)}}
	clone := CloneVariants(original)

	clone[0].Model.Columns[0].Capacity = 1

	assert.Equal(t, 13300, original[0].Model.Columns[0].Capacity)
}

func TestVariantNames(t *testing.T) {
	variants := []Variant{
		{Model: twoColumns("semi-trailer", 13300)},
		{Model: twoColumns("tandem-axle", 7100)},
	}

	assert.Equal(t, []string{"semi-trailer", "tandem-axle"}, VariantNames(variants))
}
