package report

import (
	"fmt"
	"runtime"
)

// Capability describes the parallel runtime the binary runs on. It is
// diagnostic only and never reaches the estimator.
type Capability struct {
	GoVersion string
	MaxProcs  int
	NumCPU    int
}

// DetectCapability reads the current runtime settings.
func DetectCapability() Capability {
	return Capability{
		GoVersion: runtime.Version(),
		MaxProcs:  runtime.GOMAXPROCS(0),
		NumCPU:    runtime.NumCPU(),
	}
}

// Parallel reports whether more than one goroutine can run at once.
func (c Capability) Parallel() bool {
	return c.MaxProcs > 1
}

func (c Capability) String() string {
	mode := "serial"
	if c.Parallel() {
		mode = "parallel"
	}
	return fmt.Sprintf("%s runtime, %s, GOMAXPROCS=%d on %d CPUs", c.GoVersion, mode, c.MaxProcs, c.NumCPU)
}
