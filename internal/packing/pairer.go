package packing

// PairItems groups items of identical length into pairs, leaving at most one
// unpaired item per distinct length. Indices within a length group are
// consumed in ascending input order, and groups are visited in order of the
// length's first appearance, so repeated runs on identical input produce
// identical pairs. Every input index lands in exactly one of pairs or singles.
func PairItems(lengths []int) (pairs []Pair, singles []int) {
	byLength := make(map[int][]int, len(lengths))
	var seen []int
	for idx, length := range lengths {
		if _, ok := byLength[length]; !ok {
			seen = append(seen, length)
		}
		byLength[length] = append(byLength[length], idx)
	}

	for _, length := range seen {
		group := byLength[length]
		for len(group) >= 2 {
			pairs = append(pairs, Pair{A: group[0], B: group[1]})
			group = group[2:]
		}
		if len(group) == 1 {
			singles = append(singles, group[0])
		}
	}
	return pairs, singles
}
