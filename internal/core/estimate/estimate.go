// Package estimate turns a global hit count into a π estimate with a
// binomial error bound.
package estimate

import (
	"errors"
	"math"

	"github.com/louisbranch/pie/internal/core/geometry"
)

// ErrNoTrials indicates an estimate over zero trials.
var ErrNoTrials = errors.New("trials must be positive")

// ErrTooManyHits indicates more hits than trials.
var ErrTooManyHits = errors.New("hits exceed trials")

// Estimate holds every statistic derived from one run.
type Estimate struct {
	Hits   uint64
	Trials uint64
	Areas  geometry.Areas

	// Probability is the hit fraction p = H/N of the sampled region.
	Probability float64
	// Variance is the binomial variance p(1-p)/N.
	Variance float64
	// AreaInside is f1 + (f3+f4)·p, the estimated quarter-disc area.
	AreaInside float64
	// Pi is 4·AreaInside.
	Pi float64
	// Error is the propagated one-sigma error 4·(f3+f4)·√Variance.
	Error float64
	// RelativeError is Error/π.
	RelativeError float64
	// Deviation is Pi - π.
	Deviation float64
	// RelativeDeviation is Deviation/π.
	RelativeDeviation float64
	// Sigmas is Deviation/Error. It is ±Inf or NaN when Error is zero.
	Sigmas float64
}

// Compute derives the estimate for hits out of trials.
//
// trials is the nominal target N, not the executed count: with the default
// remainder policy up to W-1 trials never run and p is still H/N.
func Compute(hits, trials uint64) (Estimate, error) {
	if trials == 0 {
		return Estimate{}, ErrNoTrials
	}
	if hits > trials {
		return Estimate{}, ErrTooManyHits
	}

	areas := geometry.Fractions()
	n := float64(trials)
	p := float64(hits) / n

	fest := areas.Inner + areas.Sampled()*p
	pi := 4.0 * fest

	// Same evaluation order as √(N·p(1-p))/N so results match the reference output.
	errp := math.Sqrt(n*p*(1.0-p)) / n
	errpi := 4.0 * areas.Sampled() * errp
	dev := pi - math.Pi

	return Estimate{
		Hits:              hits,
		Trials:            trials,
		Areas:             areas,
		Probability:       p,
		Variance:          p * (1.0 - p) / n,
		AreaInside:        fest,
		Pi:                pi,
		Error:             errpi,
		RelativeError:     errpi / math.Pi,
		Deviation:         dev,
		RelativeDeviation: dev / math.Pi,
		Sigmas:            dev / errpi,
	}, nil
}
