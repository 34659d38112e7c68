// Package pie parses the estimator command line and runs one estimation.
package pie

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/louisbranch/pie/internal/core/geometry"
	"github.com/louisbranch/pie/internal/core/reduce"
	"github.com/louisbranch/pie/internal/core/sampler"
	"github.com/louisbranch/pie/internal/core/seed"
	"github.com/louisbranch/pie/internal/core/stream"
	"github.com/louisbranch/pie/internal/core/symmetry"
	"github.com/louisbranch/pie/internal/montecarlo"
	entrypoint "github.com/louisbranch/pie/internal/platform/cmd"
	"github.com/louisbranch/pie/internal/random"
	"github.com/louisbranch/pie/internal/report"
)

// Config holds estimator command configuration.
type Config struct {
	Workers   int     `env:"WORKERS" envDefault:"0"`
	Engine    string  `env:"ENGINE" envDefault:"mt19937"`
	Remainder string  `env:"REMAINDER" envDefault:"drop"`
	Debug     bool    `env:"DEBUG"`
	DebugRate float64 `env:"DEBUG_RATE" envDefault:"20"`
	Verbose   bool    `env:"VERBOSE"`

	RandomSeed    bool
	CheckSymmetry bool

	// Seed is the resolved base seed.
	Seed uint64
	// Notices are printed ahead of the report.
	Notices []string

	// trials overrides montecarlo.DefaultTrials in tests.
	trials uint64
}

// newSeed is replaced in tests.
var newSeed = random.NewSeed

// ParseConfig parses environment, flags and the optional positional seed.
// A missing or extra positional argument is not an error: the default seed is
// used and a usage notice is recorded.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of parallel workers (0 = GOMAXPROCS)")
	fs.StringVar(&cfg.Engine, "engine", cfg.Engine, "Random engine: mt19937, xoshiro256starstar or mathrand")
	fs.StringVar(&cfg.Remainder, "remainder", cfg.Remainder, "Trials left over by the per-worker split: drop or spread")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Trace x, y and r² of sampled points")
	fs.Float64Var(&cfg.DebugRate, "debug-rate", cfg.DebugRate, "Maximum trace lines per second per worker (0 = unlimited)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Log each worker as it finishes")
	fs.BoolVar(&cfg.RandomSeed, "random", false, "Draw the base seed from crypto/rand when no seed argument is given")
	fs.BoolVar(&cfg.CheckSymmetry, "check-symmetry", false, "Sample the mirrored region too and compare variances")
	if err := entrypoint.ParseArgs(fs, seedArgs(fs, args)); err != nil {
		return Config{}, err
	}

	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.DebugRate < 0 {
		return Config{}, fmt.Errorf("debug rate must not be negative, got %v", cfg.DebugRate)
	}
	engine, err := stream.ParseEngine(cfg.Engine)
	if err != nil {
		return Config{}, err
	}
	cfg.Engine = string(engine)
	remainder, err := reduce.ParseRemainder(cfg.Remainder)
	if err != nil {
		return Config{}, err
	}
	cfg.Remainder = string(remainder)

	positional := fs.Args()
	switch {
	case len(positional) == 1:
		cfg.Seed = ParseSeed(positional[0])
		cfg.Notices = append(cfg.Notices, fmt.Sprintf("Found seed argument %q", positional[0]))
	case len(positional) == 0 && cfg.RandomSeed:
		s, err := newSeed()
		if err != nil {
			return Config{}, err
		}
		cfg.Seed = s
		cfg.Notices = append(cfg.Notices, "Drew base seed from crypto/rand")
	default:
		cfg.Seed = seed.Default
		cfg.Notices = append(cfg.Notices,
			fmt.Sprintf("Expecting one seed argument, but got %d", len(positional)),
			fmt.Sprintf("Usage: %s [flags] <seed>", filepath.Base(fs.Name())),
			fmt.Sprintf("Will use default seed %d", seed.Default),
		)
	}
	return cfg, nil
}

// seedArgs ends flag parsing at the first argument that looks like a flag but
// names none registered on fs, so seeds such as "-5" or "-abc" stay positional.
func seedArgs(fs *flag.FlagSet, args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || len(arg) < 2 || arg[0] != '-' {
			return args
		}
		name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		name, _, hasValue := strings.Cut(name, "=")
		if name == "h" || name == "help" {
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			continue
		}
		if !hasValue {
			i++
		}
	}
	return args
}

// ParseSeed converts text to a seed the way C's strtoul does in base 10:
// leading blanks and one sign are skipped, the longest digit prefix is used,
// no digits yield 0, overflow saturates, and a minus sign negates modulo 2^64.
// It never fails.
func ParseSeed(text string) uint64 {
	s := strings.TrimLeft(text, " \t\n\v\f\r")
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return math.MaxUint64
	}
	if negative {
		v = -v
	}
	return v
}

// Run performs the estimation and writes the report to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	engine, err := stream.ParseEngine(cfg.Engine)
	if err != nil {
		return err
	}
	remainder, err := reduce.ParseRemainder(cfg.Remainder)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePie, func(ctx context.Context) error {
		req := montecarlo.Request{
			BaseSeed:  cfg.Seed,
			Workers:   cfg.Workers,
			Trials:    cfg.trials,
			Engine:    engine,
			Remainder: remainder,
		}
		if cfg.Verbose {
			req.OnPartial = logPartial
		}
		if cfg.Debug {
			req.Trace = debugTrace(cfg.DebugRate)
		}

		res, err := montecarlo.Run(ctx, req)
		if err != nil {
			return err
		}

		var sym *symmetry.Result
		if cfg.CheckSymmetry {
			s, err := symmetry.Compare(symmetry.Config{
				BaseSeed:       cfg.Seed,
				Engine:         engine,
				Batches:        symmetry.DefaultBatches,
				TrialsPerBatch: symmetry.DefaultTrialsPerBatch,
			})
			if err != nil {
				return fmt.Errorf("symmetry check: %w", err)
			}
			sym = &s
		}

		return report.Write(out, report.Report{
			Notices:    cfg.Notices,
			Capability: report.DetectCapability(),
			Result:     res,
			Symmetry:   sym,
		})
	})
}

func logPartial(p reduce.Partial) {
	log.Printf("worker %3d [%d] with seed %6d : hits = %d", p.Worker.Index, p.Worker.Count, p.Seed, p.Hits)
}

// debugTrace returns a factory of per-worker trace hooks. Each hook owns its
// limiter, so tracing adds no state shared between workers.
func debugTrace(perSecond float64) func(reduce.ExecContext) sampler.TraceFunc {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return func(ec reduce.ExecContext) sampler.TraceFunc {
		limiter := rate.NewLimiter(limit, 1)
		return func(p geometry.Point, rsq float64) {
			if limiter.Allow() {
				log.Printf("worker %d x,y,r^2 %.10f %.10f %.10f", ec.Index, p.X, p.Y, rsq)
			}
		}
	}
}
