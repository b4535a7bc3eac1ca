package packing

// CheckFeasible reports whether the combined floor area of the items fits the
// combined column area of the model. It is a necessary but not sufficient
// pre-check: passing it does not guarantee a per-column assignment exists,
// because the aggregate ignores the discrete lane capacities.
func CheckFeasible(lengths []int, columnWidth int, model CapacityModel) bool {
	itemArea := 0
	for _, length := range lengths {
		itemArea += length * columnWidth
	}
	return itemArea <= model.TotalCapacity()*columnWidth
}
