// Package stream provides the seeded uniform random streams used by samplers.
//
// # Determinism
//
// A stream is fully determined by its Engine and seed. Streams are not safe
// for concurrent use: each worker owns exactly one.
package stream

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mathext/prng"
)

// Engine names a pseudo-random generator.
type Engine string

const (
	// EngineMT19937 is the 32-bit Mersenne Twister. Doubles are built from two
	// consecutive outputs the way libstdc++'s generate_canonical does, so a
	// seed reproduces the reference C++ stream bit for bit.
	EngineMT19937 Engine = "mt19937"
	// EngineXoshiro is xoshiro256** with 53-bit doubles.
	EngineXoshiro Engine = "xoshiro256starstar"
	// EngineMathRand is the standard library math/rand source.
	EngineMathRand Engine = "mathrand"
)

// DefaultEngine is used when no engine is configured.
const DefaultEngine = EngineMT19937

// ErrUnknownEngine indicates an engine name that is not supported.
var ErrUnknownEngine = errors.New("unknown random engine")

// Engines lists the supported engines.
func Engines() []Engine {
	return []Engine{EngineMT19937, EngineXoshiro, EngineMathRand}
}

// ParseEngine resolves an engine name. The empty string selects DefaultEngine.
func ParseEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultEngine, nil
	}
	for _, e := range Engines() {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

// Stream yields uniform variates in [0, 1).
type Stream interface {
	Float64() float64
}

// New returns a stream for engine seeded with seed.
func New(engine Engine, seed uint64) (Stream, error) {
	switch engine {
	case EngineMT19937:
		src := prng.NewMT19937()
		src.Seed(seed)
		return &canonical32{src: src}, nil
	case EngineXoshiro:
		return &canonical64{src: prng.NewXoshiro256starstar(seed)}, nil
	case EngineMathRand:
		return rand.New(rand.NewSource(int64(seed))), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, string(engine))
	}
}

// canonical32 combines two 32-bit outputs into one double in [0, 1).
type canonical32 struct {
	src *prng.MT19937
}

func (c *canonical32) Float64() float64 {
	lo := float64(c.src.Uint32())
	hi := float64(c.src.Uint32())
	u := (lo + hi*0x1p32) * 0x1p-64
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}
	return u
}

// canonical64 takes the top 53 bits of a 64-bit output.
type canonical64 struct {
	src *prng.Xoshiro256starstar
}

func (c *canonical64) Float64() float64 {
	return float64(c.src.Uint64()>>11) * 0x1p-53
}
