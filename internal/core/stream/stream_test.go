package stream

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mathext/prng"
)

func TestParseEngine(t *testing.T) {
	tcs := []struct {
		name string
		want Engine
	}{
		{name: "", want: DefaultEngine},
		{name: "mt19937", want: EngineMT19937},
		{name: " MT19937 ", want: EngineMT19937},
		{name: "xoshiro256starstar", want: EngineXoshiro},
		{name: "mathrand", want: EngineMathRand},
	}
	for _, tc := range tcs {
		got, err := ParseEngine(tc.name)
		if err != nil {
			t.Fatalf("ParseEngine(%q) error = %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("ParseEngine(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseEngineRejectsUnknown(t *testing.T) {
	_, err := ParseEngine("ranlux24")
	if !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("ParseEngine error = %v, want %v", err, ErrUnknownEngine)
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New(Engine("nope"), 1)
	if !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("New error = %v, want %v", err, ErrUnknownEngine)
	}
}

func TestStreamsAreDeterministicAndInRange(t *testing.T) {
	for _, engine := range Engines() {
		a, err := New(engine, 654321)
		if err != nil {
			t.Fatalf("New(%s) error = %v", engine, err)
		}
		b, err := New(engine, 654321)
		if err != nil {
			t.Fatalf("New(%s) error = %v", engine, err)
		}
		for i := 0; i < 10000; i++ {
			x, y := a.Float64(), b.Float64()
			if x != y {
				t.Fatalf("%s draw %d differs: %v vs %v", engine, i, x, y)
			}
			if x < 0 || x >= 1 {
				t.Fatalf("%s draw %d = %v, want [0, 1)", engine, i, x)
			}
		}
	}
}

func TestStreamsDifferBySeed(t *testing.T) {
	for _, engine := range Engines() {
		a, _ := New(engine, 1)
		b, _ := New(engine, 2)
		same := true
		for i := 0; i < 8; i++ {
			if a.Float64() != b.Float64() {
				same = false
			}
		}
		if same {
			t.Fatalf("%s streams for seeds 1 and 2 are identical", engine)
		}
	}
}

func TestMT19937CombinesTwoOutputsLowFirst(t *testing.T) {
	ref := prng.NewMT19937()
	ref.Seed(5489)
	lo := float64(ref.Uint32())
	hi := float64(ref.Uint32())
	want := (lo + hi*0x1p32) * 0x1p-64

	s, err := New(EngineMT19937, 5489)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if got := s.Float64(); got != want {
		t.Fatalf("first draw = %v, want %v", got, want)
	}
}

func TestMT19937UsesLow32BitsOfSeed(t *testing.T) {
	a, _ := New(EngineMT19937, 7)
	b, _ := New(EngineMT19937, 7+1<<32)
	for i := 0; i < 4; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestMT19937ReferenceOutput(t *testing.T) {
	// The 10000th output of a default-seeded mt19937 is fixed by the C++ standard.
	src := prng.NewMT19937()
	src.Seed(5489)
	var v uint32
	for i := 0; i < 10000; i++ {
		v = src.Uint32()
	}
	if v != 4123659995 {
		t.Fatalf("10000th output = %d, want 4123659995", v)
	}
}
