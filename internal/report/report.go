// Package report renders the human-readable summary of an estimation.
package report

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/pie/internal/core/symmetry"
	"github.com/louisbranch/pie/internal/montecarlo"
)

// Report collects everything printed for one run.
type Report struct {
	// Notices are printed first, one per line (usage hints, argument echo).
	Notices    []string
	Capability Capability
	Result     montecarlo.Result
	// Symmetry is printed when non-nil.
	Symmetry *symmetry.Result
}

// Write renders r to w.
func Write(w io.Writer, r Report) error {
	if w == nil {
		return errors.New("output is required")
	}
	var b strings.Builder
	p := message.NewPrinter(language.English)

	for _, n := range r.Notices {
		p.Fprintf(&b, "%s\n", n)
	}

	res := r.Result
	est := res.Estimate
	red := res.Reduction
	a := est.Areas

	p.Fprintf(&b, "Base seed set to %s\n", strconv.FormatUint(res.BaseSeed, 10))
	p.Fprintf(&b, "True value of pi is %.10f\n", math.Pi)
	p.Fprintf(&b, "Runtime: %s\n", r.Capability)
	p.Fprintf(&b, "\nCalculate pi using 2-d method with %d throws (engine %s, remainder %s)\n\n", red.Trials, res.Engine, res.Remainder)

	for _, part := range red.Partials {
		p.Fprintf(&b, "worker %3d [%d]  with seed %6s : hits = %d\n",
			part.Worker.Index, part.Worker.Count, strconv.FormatUint(part.Seed, 10), part.Hits)
	}

	p.Fprintf(&b, "\nTotal hits : %d\n", red.Hits)
	if red.Executed != red.Trials {
		p.Fprintf(&b, "Executed throws : %d (%d dropped)\n", red.Executed, red.Trials-red.Executed)
	}
	p.Fprintf(&b, "Binomial probability %.10f\n", est.Probability)
	p.Fprintf(&b, "Area fractions: %.10f %.10f %.10f %.10f Sum %.10f\n", a.Inner, a.Outer, a.Lower, a.Upper, a.Sum())

	p.Fprintf(&b, "\nEstimate of pi = %.10f +- %.10f (%.10e)\n\n", est.Pi, est.Error, est.RelativeError)
	p.Fprintf(&b, "True value pi = %.10f\n", math.Pi)
	p.Fprintf(&b, "Actual deviation in pi: %.10f (abs) %.10e (rel)\n", est.Deviation, est.RelativeDeviation)
	p.Fprintf(&b, "No. of standard deviations = %.10e\n", est.Sigmas)
	p.Fprintf(&b, "Used %d workers\n", red.Workers)

	if s := r.Symmetry; s != nil {
		writeSymmetry(p, &b, *s)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSymmetry(p *message.Printer, b *strings.Builder, s symmetry.Result) {
	p.Fprintf(b, "\nSymmetry check: %d batches of %d throws per region\n", s.Config.Batches, s.Config.TrialsPerBatch)
	for _, r := range []symmetry.RegionStats{s.Lower, s.Upper} {
		p.Fprintf(b, "  %-5s region: mean p = %.10f var measured = %.6e predicted = %.6e ratio = %.4f\n",
			r.Region, r.Mean, r.MeasuredVariance, r.PredictedVariance, r.VarianceRatio())
	}
	p.Fprintf(b, "  mean difference = %.6e (%.4f standard errors)\n", s.MeanDifference, s.Sigmas())
	p.Fprintf(b, "  pi spread measured = %.6e predicted = %.6e ratio = %.4f\n",
		s.MeasuredPiStdDev, s.PredictedPiStdDev, s.PiStdDevRatio())
}
