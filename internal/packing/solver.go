package packing

import (
	"context"
	"math"
	"runtime"
	"slices"
	"sync"
)

const (
	// DefaultFallbackMaxItems caps the factorial permutation fallback; above
	// this the path is rejected rather than silently run.
	DefaultFallbackMaxItems = 10
	// DefaultCandidateBudget bounds the columns^singles enumeration of the
	// single-placement phase.
	DefaultCandidateBudget = 1 << 24

	parallelThreshold = 1 << 15
	cancelStride      = 1 << 10
)

// Solver runs the capacity-constrained assignment searches. Construct with
// NewSolver; a Solver is safe for concurrent use.
type Solver struct {
	fallbackMaxItems int
	candidateBudget  uint64
	workers          int
}

// SolverOption configures Solver behaviour.
type SolverOption func(*Solver)

// WithFallbackMaxItems overrides the permutation fallback ceiling.
func WithFallbackMaxItems(n int) SolverOption {
	return func(s *Solver) {
		if n > 0 {
			s.fallbackMaxItems = n
		}
	}
}

// WithCandidateBudget overrides the single-placement candidate budget.
func WithCandidateBudget(n uint64) SolverOption {
	return func(s *Solver) {
		if n > 0 {
			s.candidateBudget = n
		}
	}
}

// WithWorkers overrides the number of goroutines used for large enumerations.
func WithWorkers(n int) SolverOption {
	return func(s *Solver) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSolver constructs a Solver with the reference limits.
func NewSolver(opts ...SolverOption) *Solver {
	s := &Solver{
		fallbackMaxItems: DefaultFallbackMaxItems,
		candidateBudget:  DefaultCandidateBudget,
		workers:          runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve assigns every item to a column using the pair-first two-phase search.
//
// Phase 1 walks the pairs in order and commits each to the first column
// combination (ascending over index pairs) that keeps both columns within
// capacity. This is greedy first fit, not a global optimum, and a pair with
// no fitting combination fails the whole attempt.
//
// Phase 2 enumerates every mapping of the unpaired singles to columns,
// columns^singles candidates in total, and keeps the valid candidate with the
// smallest maximum column load. Ties resolve to the first candidate in
// enumeration order, also under parallel evaluation.
//
// On failure Solve returns a *SolveError carrying the failure trace and never
// a partial assignment.
func (s *Solver) Solve(ctx context.Context, lengths []int, pairs []Pair, singles []int, model CapacityModel) (*Result, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	loads := model.BaselineLoads()
	assignment := make([]int, len(lengths))
	for i := range assignment {
		assignment[i] = -1
	}

	for _, pair := range pairs {
		col1, col2, ok := placePair(lengths, pair, loads, model.Columns)
		if !ok {
			failed := pair
			return nil, &SolveError{
				Trace: Trace{Model: model.Name, Phase: PhasePairs, Pair: &failed, ColumnLoads: slices.Clone(loads)},
				err:   ErrPairPlacement,
			}
		}
		assignment[pair.A] = col1
		assignment[pair.B] = col2
		loads[col1] += lengths[pair.A]
		loads[col2] += lengths[pair.B]
	}

	if len(singles) > 0 {
		rank, err := s.searchSingles(ctx, lengths, singles, loads, model)
		if err != nil {
			return nil, err
		}
		applyRank(rank, lengths, singles, loads, len(model.Columns), assignment)
	}

	return &Result{Assignment: assignment, ColumnLoads: loads, MaxLoad: slices.Max(loads)}, nil
}

// SolvePermutations is the unrestricted fallback: it ignores the pairing
// structure and, for every permutation of all item indices in lexicographic
// order, greedily places each item into the column with the lowest running
// total, rejecting the permutation as soon as a placement overflows. The
// first feasible permutation achieving the lowest maximum load wins. The
// search is factorial in the item count and refuses inputs above the
// configured ceiling.
func (s *Solver) SolvePermutations(ctx context.Context, lengths []int, model CapacityModel) (*Result, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if len(lengths) > s.fallbackMaxItems {
		return nil, &SolveError{
			Trace: Trace{Model: model.Name, Phase: PhaseFallback, ColumnLoads: model.BaselineLoads()},
			err:   ErrTooManyItems,
		}
	}

	base := model.BaselineLoads()
	if len(lengths) == 0 {
		return &Result{Assignment: []int{}, ColumnLoads: base, MaxLoad: slices.Max(base)}, nil
	}

	perm := make([]int, len(lengths))
	for i := range perm {
		perm[i] = i
	}

	var (
		bestAssignment []int
		bestLoads      []int
		bestMax        = math.MaxInt
		examined       uint64
	)
	loads := make([]int, len(base))
	assignment := make([]int, len(lengths))

	for {
		if examined%cancelStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		examined++

		copy(loads, base)
		valid := true
		for _, idx := range perm {
			col := lowestColumn(loads)
			loads[col] += lengths[idx]
			if loads[col] > model.Columns[col].Capacity {
				valid = false
				break
			}
			assignment[idx] = col
		}
		if valid {
			if m := slices.Max(loads); m < bestMax {
				bestMax = m
				bestAssignment = slices.Clone(assignment)
				bestLoads = slices.Clone(loads)
			}
		}
		if !nextPermutation(perm) {
			break
		}
	}

	if bestAssignment == nil {
		return nil, &SolveError{
			Trace: Trace{Model: model.Name, Phase: PhaseFallback, ColumnLoads: base, Candidates: examined},
			err:   ErrNoFeasibleAssignment,
		}
	}
	return &Result{Assignment: bestAssignment, ColumnLoads: bestLoads, MaxLoad: bestMax}, nil
}

// placePair returns the first column combination that fits both halves of the
// pair on distinct columns.
func placePair(lengths []int, pair Pair, loads []int, columns []Column) (int, int, bool) {
	for c1 := 0; c1 < len(columns); c1++ {
		for c2 := c1 + 1; c2 < len(columns); c2++ {
			if loads[c1]+lengths[pair.A] <= columns[c1].Capacity &&
				loads[c2]+lengths[pair.B] <= columns[c2].Capacity {
				return c1, c2, true
			}
		}
	}
	return 0, 0, false
}

// candidate is one evaluated single-placement mapping, identified by its rank
// in enumeration order.
type candidate struct {
	rank uint64
	max  int
}

// searchSingles enumerates the candidate space and returns the rank of the
// best valid candidate. The first single is the most significant digit of the
// rank, so rank order equals the order a nested loop over column choices
// would produce. Large spaces are split across workers; the reduce prefers
// the lower maximum load and breaks ties on the lower rank, keeping the
// reported optimum independent of goroutine scheduling.
func (s *Solver) searchSingles(ctx context.Context, lengths, singles, loads []int, model CapacityModel) (uint64, error) {
	numCols := uint64(len(model.Columns))
	total := uint64(1)
	for range singles {
		if total > s.candidateBudget/numCols {
			return 0, &SolveError{
				Trace: Trace{Model: model.Name, Phase: PhaseSingles, ColumnLoads: slices.Clone(loads)},
				err:   ErrSearchSpaceExceeded,
			}
		}
		total *= numCols
	}

	workers := s.workers
	if workers < 1 || total < parallelThreshold {
		workers = 1
	}
	if uint64(workers) > total {
		workers = int(total)
	}

	type shard struct {
		best  candidate
		found bool
		err   error
	}
	shards := make([]shard, workers)
	chunk := total / uint64(workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		from := uint64(w) * chunk
		to := from + chunk
		if w == workers-1 {
			to = total
		}
		wg.Add(1)
		go func(w int, from, to uint64) {
			defer wg.Done()
			best, found, err := scanCandidates(ctx, from, to, lengths, singles, loads, model.Columns)
			shards[w] = shard{best: best, found: found, err: err}
		}(w, from, to)
	}
	wg.Wait()

	best := candidate{max: math.MaxInt}
	found := false
	for _, sh := range shards {
		if sh.err != nil {
			return 0, sh.err
		}
		if !sh.found {
			continue
		}
		if sh.best.max < best.max || (sh.best.max == best.max && sh.best.rank < best.rank) {
			best = sh.best
			found = true
		}
	}
	if !found {
		return 0, &SolveError{
			Trace: Trace{Model: model.Name, Phase: PhaseSingles, ColumnLoads: slices.Clone(loads), Candidates: total},
			err:   ErrNoFeasibleAssignment,
		}
	}
	return best.rank, nil
}

// scanCandidates evaluates ranks in [from, to) in order and returns the best
// valid candidate of the range.
func scanCandidates(ctx context.Context, from, to uint64, lengths, singles, base []int, columns []Column) (candidate, bool, error) {
	numCols := uint64(len(columns))
	best := candidate{max: math.MaxInt}
	found := false
	loads := make([]int, len(base))

	for rank := from; rank < to; rank++ {
		if (rank-from)%cancelStride == 0 {
			if err := ctx.Err(); err != nil {
				return candidate{}, false, err
			}
		}

		copy(loads, base)
		valid := true
		r := rank
		for i := len(singles) - 1; i >= 0; i-- {
			col := int(r % numCols)
			r /= numCols
			loads[col] += lengths[singles[i]]
			if loads[col] > columns[col].Capacity {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		if m := slices.Max(loads); m < best.max {
			best = candidate{rank: rank, max: m}
			found = true
		}
	}
	return best, found, nil
}

// applyRank decodes a candidate rank into the assignment and load vectors,
// using the same digit order as scanCandidates.
func applyRank(rank uint64, lengths, singles, loads []int, numCols int, assignment []int) {
	r := rank
	for i := len(singles) - 1; i >= 0; i-- {
		col := int(r % uint64(numCols))
		r /= uint64(numCols)
		assignment[singles[i]] = col
		loads[col] += lengths[singles[i]]
	}
}

// lowestColumn returns the index of the column with the smallest running
// total, preferring the lowest index on ties.
func lowestColumn(loads []int) int {
	best := 0
	for i := 1; i < len(loads); i++ {
		if loads[i] < loads[best] {
			best = i
		}
	}
	return best
}

// nextPermutation advances p to its lexicographic successor in place,
// returning false once p is the final permutation.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	slices.Reverse(p[i+1:])
	return true
}
