package packing

import "fmt"

// Column is a single lane of a carrier. Loads accumulate along its length;
// Baseline is length already occupied before planning starts. Carrier tags
// the physical group the lane belongs to and is only used by presentation
// layers; the solver treats columns as a flat ordered list.
type Column struct {
	Capacity int `json:"capacity" yaml:"capacity"`
	Baseline int `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Carrier  int `json:"carrier" yaml:"carrier"`
}

// CapacityModel is the fixed, ordered set of columns one solve attempt runs
// against. Models are cloned per attempt and never shared between attempts.
type CapacityModel struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Pair references two items of identical length scheduled together across
// distinct columns. A and B are indices into the input length slice.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Result is a completed assignment. Assignment maps every item index to a
// column index; ColumnLoads includes baselines.
type Result struct {
	Assignment  []int
	ColumnLoads []int
	MaxLoad     int
}

// Clone returns a deep copy of the model.
func (m CapacityModel) Clone() CapacityModel {
	columns := make([]Column, len(m.Columns))
	copy(columns, m.Columns)
	return CapacityModel{Name: m.Name, Columns: columns}
}

// BaselineLoads returns the starting load vector, one entry per column.
func (m CapacityModel) BaselineLoads() []int {
	loads := make([]int, len(m.Columns))
	for i, col := range m.Columns {
		loads[i] = col.Baseline
	}
	return loads
}

// TotalCapacity returns the summed maximum length over all columns.
func (m CapacityModel) TotalCapacity() int {
	total := 0
	for _, col := range m.Columns {
		total += col.Capacity
	}
	return total
}

// Validate checks the structural invariants of a model: at least two columns,
// positive capacities, and baselines within [0, capacity].
func (m CapacityModel) Validate() error {
	if len(m.Columns) < 2 {
		return fmt.Errorf("%w: model %q needs at least two columns", ErrInvalidModel, m.Name)
	}
	for i, col := range m.Columns {
		if col.Capacity <= 0 {
			return fmt.Errorf("%w: model %q column %d capacity must be positive", ErrInvalidModel, m.Name, i)
		}
		if col.Baseline < 0 || col.Baseline > col.Capacity {
			return fmt.Errorf("%w: model %q column %d baseline %d outside [0, %d]", ErrInvalidModel, m.Name, i, col.Baseline, col.Capacity)
		}
	}
	return nil
}
