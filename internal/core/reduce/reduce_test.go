package reduce

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/louisbranch/pie/internal/core/geometry"
	"github.com/louisbranch/pie/internal/core/sampler"
	"github.com/louisbranch/pie/internal/core/stream"
)

func TestTrialsPerWorker(t *testing.T) {
	tcs := []struct {
		total  uint64
		ec     ExecContext
		policy Remainder
		want   uint64
	}{
		{total: 10_000_000, ec: ExecContext{Index: 0, Count: 4}, policy: RemainderDrop, want: 2_500_000},
		{total: 10, ec: ExecContext{Index: 0, Count: 3}, policy: RemainderDrop, want: 3},
		{total: 10, ec: ExecContext{Index: 2, Count: 3}, policy: RemainderDrop, want: 3},
		{total: 10, ec: ExecContext{Index: 0, Count: 3}, policy: RemainderSpread, want: 4},
		{total: 10, ec: ExecContext{Index: 1, Count: 3}, policy: RemainderSpread, want: 3},
		{total: 2, ec: ExecContext{Index: 3, Count: 4}, policy: RemainderDrop, want: 0},
		{total: 5, ec: ExecContext{Index: 0, Count: 0}, policy: RemainderDrop, want: 0},
	}
	for _, tc := range tcs {
		if got := TrialsPerWorker(tc.total, tc.ec, tc.policy); got != tc.want {
			t.Fatalf("TrialsPerWorker(%d, %+v, %s) = %d, want %d", tc.total, tc.ec, tc.policy, got, tc.want)
		}
	}
}

func TestParseRemainder(t *testing.T) {
	for name, want := range map[string]Remainder{"": RemainderDrop, "drop": RemainderDrop, "Spread": RemainderSpread} {
		got, err := ParseRemainder(name)
		if err != nil {
			t.Fatalf("ParseRemainder(%q) error = %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseRemainder(%q) = %q, want %q", name, got, want)
		}
	}
	if _, err := ParseRemainder("redistribute"); !errors.Is(err, ErrUnknownRemainder) {
		t.Fatalf("ParseRemainder error = %v, want %v", err, ErrUnknownRemainder)
	}
}

func TestRunRejectsInvalidPlans(t *testing.T) {
	if _, err := Run(context.Background(), Plan{Workers: 0, Trials: 10}); !errors.Is(err, ErrInvalidWorkers) {
		t.Fatalf("Run error = %v, want %v", err, ErrInvalidWorkers)
	}
	if _, err := Run(context.Background(), Plan{Workers: 1, Trials: 10, Engine: "nope"}); !errors.Is(err, stream.ErrUnknownEngine) {
		t.Fatalf("Run error = %v, want %v", err, stream.ErrUnknownEngine)
	}
	if _, err := Run(context.Background(), Plan{Workers: 1, Trials: 10, Engine: stream.EngineMT19937, Remainder: "bogus"}); !errors.Is(err, ErrUnknownRemainder) {
		t.Fatalf("Run error = %v, want %v", err, ErrUnknownRemainder)
	}
}

func TestRunSumsPartials(t *testing.T) {
	plan := Plan{BaseSeed: 1, Workers: 4, Trials: 400_000, Engine: stream.EngineMT19937}
	got, err := Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got.Partials) != 4 {
		t.Fatalf("partials = %d, want 4", len(got.Partials))
	}
	var sum uint64
	for i, p := range got.Partials {
		if p.Worker.Index != i || p.Worker.Count != 4 {
			t.Fatalf("partial %d context = %+v", i, p.Worker)
		}
		if p.Seed != uint64(1+i) {
			t.Fatalf("partial %d seed = %d, want %d", i, p.Seed, 1+i)
		}
		if p.Trials != 100_000 {
			t.Fatalf("partial %d trials = %d, want 100000", i, p.Trials)
		}
		if p.Hits > p.Trials {
			t.Fatalf("partial %d hits %d exceed trials %d", i, p.Hits, p.Trials)
		}
		sum += p.Hits
	}
	if sum != got.Hits {
		t.Fatalf("sum of partials = %d, reported hits = %d", sum, got.Hits)
	}
	if got.Hits > got.Executed || got.Executed > got.Trials {
		t.Fatalf("hits %d, executed %d, trials %d out of order", got.Hits, got.Executed, got.Trials)
	}
}

func TestRunMatchesSerialWorkers(t *testing.T) {
	// Each partial must equal a direct, single-worker invocation with the same
	// execution context, regardless of scheduling.
	plan := Plan{BaseSeed: 99, Workers: 3, Trials: 30_001, Engine: stream.EngineXoshiro}
	got, err := Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := range plan.Workers {
		src, _ := stream.New(plan.Engine, plan.BaseSeed+uint64(i))
		want := sampler.Run(src, sampler.Config{Trials: TrialsPerWorker(plan.Trials, ExecContext{Index: i, Count: 3}, RemainderDrop)})
		if got.Partials[i].Hits != want.Hits {
			t.Fatalf("worker %d hits = %d, want %d", i, got.Partials[i].Hits, want.Hits)
		}
	}
	if got.Executed != 30_000 {
		t.Fatalf("executed = %d, want 30000 (remainder dropped)", got.Executed)
	}
}

func TestRunSpreadExecutesEveryTrial(t *testing.T) {
	got, err := Run(context.Background(), Plan{BaseSeed: 5, Workers: 3, Trials: 1000, Engine: stream.EngineMathRand, Remainder: RemainderSpread})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Executed != 1000 {
		t.Fatalf("executed = %d, want 1000", got.Executed)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	plan := Plan{BaseSeed: 654321, Workers: 8, Trials: 80_000, Engine: stream.EngineMT19937}
	first, err := Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for range 3 {
		again, err := Run(context.Background(), plan)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if again.Hits != first.Hits {
			t.Fatalf("hits = %d, want %d", again.Hits, first.Hits)
		}
		for i := range first.Partials {
			if again.Partials[i] != first.Partials[i] {
				t.Fatalf("partial %d = %+v, want %+v", i, again.Partials[i], first.Partials[i])
			}
		}
	}
}

func TestRunMoreWorkersThanTrials(t *testing.T) {
	got, err := Run(context.Background(), Plan{BaseSeed: 1, Workers: 8, Trials: 5, Engine: stream.EngineMT19937})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Executed != 0 || got.Hits != 0 {
		t.Fatalf("executed = %d, hits = %d, want 0 and 0", got.Executed, got.Hits)
	}
}

func TestRunSerializesOnPartial(t *testing.T) {
	var (
		active atomic.Int32
		calls  int
	)
	plan := Plan{
		BaseSeed: 3,
		Workers:  6,
		Trials:   6000,
		Engine:   stream.EngineMT19937,
		OnPartial: func(Partial) {
			if active.Add(1) != 1 {
				t.Errorf("OnPartial called concurrently")
			}
			time.Sleep(time.Millisecond)
			calls++
			active.Add(-1)
		},
	}
	if _, err := Run(context.Background(), plan); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 6 {
		t.Fatalf("OnPartial calls = %d, want 6", calls)
	}
}

func TestRunBuildsPrivateTraceHooks(t *testing.T) {
	counts := make([]int, 4)
	plan := Plan{
		BaseSeed: 11,
		Workers:  4,
		Trials:   400,
		Engine:   stream.EngineMT19937,
		Trace: func(ec ExecContext) sampler.TraceFunc {
			return func(p geometry.Point, _ float64) {
				if geometry.Classify(p) != geometry.RegionLower {
					t.Errorf("worker %d traced %+v outside lower region", ec.Index, p)
				}
				counts[ec.Index]++
			}
		},
	}
	if _, err := Run(context.Background(), plan); err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, c := range counts {
		if c != 100 {
			t.Fatalf("worker %d traced %d points, want 100", i, c)
		}
	}
}

func TestRunRecordsFullSeedOnWorkerSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	plan := Plan{
		BaseSeed:  math.MaxUint64,
		Workers:   2,
		Trials:    10,
		Engine:    stream.EngineMT19937,
		Remainder: RemainderDrop,
	}
	if _, err := Run(context.Background(), plan); err != nil {
		t.Fatalf("run: %v", err)
	}

	seeds := map[string]bool{}
	for _, span := range recorder.Ended() {
		if span.Name() != "reduce.worker" {
			continue
		}
		for _, kv := range span.Attributes() {
			if kv.Key == "worker.seed" {
				seeds[kv.Value.AsString()] = true
			}
		}
	}
	for _, want := range []string{"18446744073709551615", "0"} {
		if !seeds[want] {
			t.Fatalf("expected worker.seed %s on a span, got %v", want, seeds)
		}
	}
}
