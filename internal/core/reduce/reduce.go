// Package reduce runs samplers in parallel and folds their hit counts.
//
// Run is a fork-join: one goroutine per worker, each with a private stream
// and a private result slot, a barrier, then an integer sum. Nothing is
// written by more than one worker, so the sum is exact and independent of
// completion order.
package reduce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/pie/internal/core/sampler"
	"github.com/louisbranch/pie/internal/core/seed"
	"github.com/louisbranch/pie/internal/core/stream"
)

var tracer = otel.Tracer("github.com/louisbranch/pie/internal/core/reduce")

// ErrInvalidWorkers indicates a plan without at least one worker.
var ErrInvalidWorkers = errors.New("workers must be positive")

// ErrUnknownRemainder indicates an unsupported remainder policy.
var ErrUnknownRemainder = errors.New("unknown remainder policy")

// ExecContext identifies a worker within one run. It replaces ambient
// "which worker am I" queries so a worker can be invoked directly in tests.
type ExecContext struct {
	Index int
	Count int
}

// Remainder decides what happens to the N mod W trials that do not divide evenly.
type Remainder string

const (
	// RemainderDrop gives every worker ⌊N/W⌋ trials; up to W-1 trials are never run.
	RemainderDrop Remainder = "drop"
	// RemainderSpread gives one extra trial to each of the first N mod W workers.
	RemainderSpread Remainder = "spread"
)

// ParseRemainder resolves a policy name. The empty string selects RemainderDrop.
func ParseRemainder(name string) (Remainder, error) {
	switch Remainder(strings.ToLower(strings.TrimSpace(name))) {
	case "", RemainderDrop:
		return RemainderDrop, nil
	case RemainderSpread:
		return RemainderSpread, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRemainder, name)
	}
}

// TrialsPerWorker returns the trial budget of the worker described by ec.
func TrialsPerWorker(total uint64, ec ExecContext, policy Remainder) uint64 {
	if ec.Count <= 0 {
		return 0
	}
	count := uint64(ec.Count)
	n := total / count
	if policy == RemainderSpread && uint64(ec.Index) < total%count {
		n++
	}
	return n
}

// Plan describes one parallel run.
type Plan struct {
	BaseSeed  uint64
	Workers   int
	Trials    uint64
	Engine    stream.Engine
	Remainder Remainder

	// Trace builds a trace hook for each worker. It is called from the worker
	// goroutine and must return a hook that owns its state; nil disables tracing.
	Trace func(ExecContext) sampler.TraceFunc

	// OnPartial is invoked once per finished worker, serialized under a mutex
	// so diagnostic output does not interleave. It has no effect on the sum.
	OnPartial func(Partial)
}

// Partial is one worker's contribution.
type Partial struct {
	Worker ExecContext
	Seed   uint64
	Trials uint64
	Hits   uint64
}

// Reduction is the combined result of a run.
type Reduction struct {
	Workers  int
	Trials   uint64 // nominal target N
	Executed uint64 // trials actually run
	Hits     uint64
	Partials []Partial // indexed by worker
}

// Run executes plan and blocks until every worker has finished. ctx carries
// tracing only; a run cannot be cancelled once started.
func Run(ctx context.Context, plan Plan) (Reduction, error) {
	if plan.Workers < 1 {
		return Reduction{}, ErrInvalidWorkers
	}
	policy, err := ParseRemainder(string(plan.Remainder))
	if err != nil {
		return Reduction{}, err
	}

	streams := make([]stream.Stream, plan.Workers)
	for i := range streams {
		src, err := stream.New(plan.Engine, seed.For(plan.BaseSeed, i))
		if err != nil {
			return Reduction{}, fmt.Errorf("worker %d stream: %w", i, err)
		}
		streams[i] = src
	}

	partials := make([]Partial, plan.Workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := range plan.Workers {
		ec := ExecContext{Index: i, Count: plan.Workers}
		wg.Add(1)
		go func() {
			defer wg.Done()
			partials[ec.Index] = work(ctx, plan, policy, ec, streams[ec.Index])
			if plan.OnPartial != nil {
				mu.Lock()
				plan.OnPartial(partials[ec.Index])
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	out := Reduction{
		Workers:  plan.Workers,
		Trials:   plan.Trials,
		Partials: partials,
	}
	for _, p := range partials {
		out.Hits += p.Hits
		out.Executed += p.Trials
	}
	return out, nil
}

func work(ctx context.Context, plan Plan, policy Remainder, ec ExecContext, src stream.Stream) Partial {
	s := seed.For(plan.BaseSeed, ec.Index)
	trials := TrialsPerWorker(plan.Trials, ec, policy)

	_, span := tracer.Start(ctx, "reduce.worker", trace.WithAttributes(
		attribute.Int("worker.index", ec.Index),
		attribute.Int("worker.count", ec.Count),
		attribute.String("worker.seed", strconv.FormatUint(s, 10)),
		attribute.Int64("worker.trials", int64(trials)),
	))
	defer span.End()

	cfg := sampler.Config{Trials: trials}
	if plan.Trace != nil {
		cfg.Trace = plan.Trace(ec)
	}
	res := sampler.Run(src, cfg)
	span.SetAttributes(attribute.Int64("worker.hits", int64(res.Hits)))

	return Partial{
		Worker: ec,
		Seed:   s,
		Trials: res.Trials,
		Hits:   res.Hits,
	}
}
