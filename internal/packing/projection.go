package packing

import "fmt"

// ProjectLoads recomputes the per-column loads and the maximum load from a
// completed assignment. Renderers use this instead of re-running the solver,
// and tests use it to cross-check the loads the search tracked internally.
func ProjectLoads(lengths []int, assignment []int, model CapacityModel) ([]int, int, error) {
	if len(assignment) != len(lengths) {
		return nil, 0, fmt.Errorf("assignment covers %d items, expected %d", len(assignment), len(lengths))
	}

	loads := model.BaselineLoads()
	for idx, col := range assignment {
		if col < 0 || col >= len(loads) {
			return nil, 0, fmt.Errorf("item %d assigned to unknown column %d", idx, col)
		}
		loads[col] += lengths[idx]
	}

	maxLoad := 0
	for _, load := range loads {
		if load > maxLoad {
			maxLoad = load
		}
	}
	return loads, maxLoad, nil
}
