// Package sampler runs the per-worker trial loop over the sampled region.
package sampler

import "github.com/louisbranch/pie/internal/core/geometry"

// Stream yields uniform variates in [0, 1).
type Stream interface {
	Float64() float64
}

// TraceFunc observes every trial. It is called from the worker goroutine only.
type TraceFunc func(p geometry.Point, rsq float64)

// Config describes one worker's budget.
type Config struct {
	// Trials is the exact number of trials to execute.
	Trials uint64
	// Trace, when set, receives every generated point.
	Trace TraceFunc
}

// Result is a worker's private outcome.
type Result struct {
	Trials uint64
	Hits   uint64
}

// Run draws cfg.Trials points from geometry.RegionLower using src and counts
// those inside the unit circle. Two variates are consumed per trial, x first.
// It touches no state besides src and its own counter.
func Run(src Stream, cfg Config) Result {
	var hits uint64
	for range cfg.Trials {
		u1 := src.Float64()
		u2 := src.Float64()
		p := geometry.MapLower(u1, u2)
		rsq := p.RadiusSquared()
		if cfg.Trace != nil {
			cfg.Trace(p, rsq)
		}
		if geometry.Hit(rsq) {
			hits++
		}
	}
	return Result{Trials: cfg.Trials, Hits: hits}
}
