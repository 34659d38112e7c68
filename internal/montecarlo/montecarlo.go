// Package montecarlo wires seeding, parallel sampling, reduction and
// estimation into one run.
//
// # Determinism
//
// A Result is a pure function of (BaseSeed, Workers, Trials, Engine,
// Remainder). Worker scheduling never changes it.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/pie/internal/core/estimate"
	"github.com/louisbranch/pie/internal/core/reduce"
	"github.com/louisbranch/pie/internal/core/sampler"
	"github.com/louisbranch/pie/internal/core/stream"
)

// DefaultTrials is the total trial target N.
const DefaultTrials uint64 = 10_000_000

var tracer = otel.Tracer("github.com/louisbranch/pie/internal/montecarlo")

// ErrNegativeWorkers indicates a negative worker request.
var ErrNegativeWorkers = errors.New("workers must not be negative")

// Request describes one estimation.
type Request struct {
	BaseSeed uint64
	// Workers is the worker count; zero uses runtime.GOMAXPROCS.
	Workers int
	// Trials overrides DefaultTrials when non-zero. Only tests set it.
	Trials    uint64
	Engine    stream.Engine
	Remainder reduce.Remainder

	Trace     func(reduce.ExecContext) sampler.TraceFunc
	OnPartial func(reduce.Partial)
}

// Result is the outcome of Run.
type Result struct {
	BaseSeed  uint64
	Engine    stream.Engine
	Remainder reduce.Remainder
	Reduction reduce.Reduction
	Estimate  estimate.Estimate
}

// ResolveWorkers returns the worker count to use for a request of n.
func ResolveWorkers(n int) int {
	if n > 0 {
		return n
	}
	if procs := runtime.GOMAXPROCS(0); procs > 0 {
		return procs
	}
	return 1
}

// Run performs the estimation: sampling in parallel, a barrier, then the
// estimator on the reduced hit count.
func Run(ctx context.Context, req Request) (result Result, err error) {
	if req.Workers < 0 {
		return Result{}, ErrNegativeWorkers
	}
	if req.Trials == 0 {
		req.Trials = DefaultTrials
	}
	if req.Engine == "" {
		req.Engine = stream.DefaultEngine
	}
	if req.Remainder == "" {
		req.Remainder = reduce.RemainderDrop
	}
	workers := ResolveWorkers(req.Workers)

	ctx, span := tracer.Start(ctx, "montecarlo.Run", trace.WithAttributes(
		attribute.String("pie.seed", strconv.FormatUint(req.BaseSeed, 10)),
		attribute.Int("pie.workers", workers),
		attribute.Int64("pie.trials", int64(req.Trials)),
		attribute.String("pie.engine", string(req.Engine)),
		attribute.String("pie.remainder", string(req.Remainder)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	red, err := reduce.Run(ctx, reduce.Plan{
		BaseSeed:  req.BaseSeed,
		Workers:   workers,
		Trials:    req.Trials,
		Engine:    req.Engine,
		Remainder: req.Remainder,
		Trace:     req.Trace,
		OnPartial: req.OnPartial,
	})
	if err != nil {
		return Result{}, fmt.Errorf("reduce: %w", err)
	}

	est, err := estimate.Compute(red.Hits, red.Trials)
	if err != nil {
		return Result{}, fmt.Errorf("estimate: %w", err)
	}
	span.SetAttributes(
		attribute.Int64("pie.hits", int64(red.Hits)),
		attribute.Float64("pie.estimate", est.Pi),
		attribute.Float64("pie.error", est.Error),
	)

	return Result{
		BaseSeed:  req.BaseSeed,
		Engine:    req.Engine,
		Remainder: req.Remainder,
		Reduction: red,
		Estimate:  est,
	}, nil
}
