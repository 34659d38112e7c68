// Package symmetry checks the reflection argument behind the estimator.
//
// The estimator samples only geometry.RegionLower and credits RegionUpper
// with the same inclusion probability. Compare samples both regions directly
// in independent batches and reports, per region, the measured spread of the
// batch hit fractions against the binomial prediction p(1-p)/n, together with
// the spread of per-batch π estimates against the propagated error formula.
package symmetry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/louisbranch/pie/internal/core/estimate"
	"github.com/louisbranch/pie/internal/core/geometry"
	"github.com/louisbranch/pie/internal/core/sampler"
	"github.com/louisbranch/pie/internal/core/seed"
	"github.com/louisbranch/pie/internal/core/stream"
)

// ErrInvalidConfig indicates too few batches or trials to measure a variance.
var ErrInvalidConfig = errors.New("symmetry check needs at least 2 batches and 1 trial per batch")

// Defaults used by the command line check.
const (
	DefaultBatches        = 200
	DefaultTrialsPerBatch = 20_000
)

// Config describes a comparison run.
type Config struct {
	BaseSeed       uint64
	Engine         stream.Engine
	Batches        int
	TrialsPerBatch uint64
}

// RegionStats summarizes the batch hit fractions of one region.
type RegionStats struct {
	Region            geometry.Region
	Mean              float64
	MeasuredVariance  float64
	PredictedVariance float64
}

// VarianceRatio returns measured over predicted variance; 1 means the
// binomial model holds.
func (r RegionStats) VarianceRatio() float64 {
	return r.MeasuredVariance / r.PredictedVariance
}

// Result is the outcome of Compare.
type Result struct {
	Config Config
	Lower  RegionStats
	Upper  RegionStats

	// MeanDifference is Upper.Mean - Lower.Mean.
	MeanDifference float64
	// DifferenceStdErr is the standard error of MeanDifference.
	DifferenceStdErr float64

	// MeasuredPiStdDev is the spread of per-batch π estimates from the lower region.
	MeasuredPiStdDev float64
	// PredictedPiStdDev is the estimator's err_π at the pooled probability.
	PredictedPiStdDev float64
}

// Sigmas returns MeanDifference in units of its standard error.
func (r Result) Sigmas() float64 {
	return r.MeanDifference / r.DifferenceStdErr
}

// PiStdDevRatio returns measured over predicted π spread.
func (r Result) PiStdDevRatio() float64 {
	return r.MeasuredPiStdDev / r.PredictedPiStdDev
}

// Compare runs cfg.Batches batches in each region. Batch b draws from seeds
// base+2b (lower) and base+2b+1 (upper).
func Compare(cfg Config) (Result, error) {
	if cfg.Batches < 2 || cfg.TrialsPerBatch == 0 {
		return Result{}, ErrInvalidConfig
	}

	lower := make([]float64, cfg.Batches)
	upper := make([]float64, cfg.Batches)
	pis := make([]float64, cfg.Batches)
	n := float64(cfg.TrialsPerBatch)

	for b := range cfg.Batches {
		lsrc, err := stream.New(cfg.Engine, seed.For(cfg.BaseSeed, 2*b))
		if err != nil {
			return Result{}, err
		}
		usrc, err := stream.New(cfg.Engine, seed.For(cfg.BaseSeed, 2*b+1))
		if err != nil {
			return Result{}, err
		}

		lres := sampler.Run(lsrc, sampler.Config{Trials: cfg.TrialsPerBatch})
		uhits := sampleUpper(usrc, cfg.TrialsPerBatch)

		lower[b] = float64(lres.Hits) / n
		upper[b] = float64(uhits) / n

		est, err := estimate.Compute(lres.Hits, cfg.TrialsPerBatch)
		if err != nil {
			return Result{}, err
		}
		pis[b] = est.Pi
	}

	res := Result{
		Config: cfg,
		Lower:  summarize(geometry.RegionLower, lower, n),
		Upper:  summarize(geometry.RegionUpper, upper, n),
	}
	batches := float64(cfg.Batches)
	res.MeanDifference = res.Upper.Mean - res.Lower.Mean
	res.DifferenceStdErr = math.Sqrt((res.Lower.MeasuredVariance + res.Upper.MeasuredVariance) / batches)

	pooled := (res.Lower.Mean + res.Upper.Mean) / 2
	res.MeasuredPiStdDev = stat.StdDev(pis, nil)
	res.PredictedPiStdDev = 4 * geometry.Fractions().Sampled() * math.Sqrt(pooled*(1-pooled)/n)
	return res, nil
}

// sampleUpper mirrors sampler.Run over RegionUpper.
func sampleUpper(src stream.Stream, trials uint64) uint64 {
	var hits uint64
	for range trials {
		u1 := src.Float64()
		u2 := src.Float64()
		if geometry.MapUpper(u1, u2).Inside() {
			hits++
		}
	}
	return hits
}

func summarize(region geometry.Region, fractions []float64, n float64) RegionStats {
	mean, variance := stat.MeanVariance(fractions, nil)
	return RegionStats{
		Region:            region,
		Mean:              mean,
		MeasuredVariance:  variance,
		PredictedVariance: mean * (1 - mean) / n,
	}
}
