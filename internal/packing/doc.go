// Package packing assigns pallets of a fixed width onto the capacity-bounded
// lanes of a carrier so that no lane exceeds its maximum length and the
// tallest lane is as short as possible. It provides the area feasibility
// pre-check, the same-length pairing heuristic, the two-phase assignment
// search with its unrestricted permutation fallback, and the planner that
// sequences attempts across carrier variants.
package packing
