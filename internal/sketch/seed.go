package sketch

import "math/rand/v2"

// NewBaseSeed picks a random base seed for a batch. Items derived from one
// base look like a single coherent session while still varying per item.
func NewBaseSeed() int64 {
	return rand.Int64N(1 << 31)
}

// AssignSeeds derives seed(item_i) = base + i for every item in place. It is
// deterministic given the same base, and runs at intake before scheduling.
func AssignSeeds(base int64, items []Item) {
	for i := range items {
		items[i].Seed = base + int64(i)
	}
}
