// Package seed derives per-worker seeds from a single base seed.
//
// # Determinism
//
// Worker i always receives base+i, independent of scheduling, so identical
// (base, workers) pairs yield identical seed sets. Addition wraps modulo 2^64:
// a base near the maximum uint64 silently wraps and no collision check is made.
package seed

// Default is the base seed used when the caller supplies none.
const Default uint64 = 654321

// For returns the seed assigned to the worker at index.
func For(base uint64, index int) uint64 {
	return base + uint64(index)
}

// All returns the seeds for workers 0..workers-1 in index order.
func All(base uint64, workers int) []uint64 {
	if workers <= 0 {
		return nil
	}
	seeds := make([]uint64, workers)
	for i := range seeds {
		seeds[i] = For(base, i)
	}
	return seeds
}
