// Package geometry holds the decomposition of the unit square used for
// importance sampling.
//
// The square is split at Split = 1/√2 on both axes:
//
//	RegionInner  x∈[0,s) y∈[0,s)  inside the circle, contributes its full area
//	RegionOuter  x∈[s,1) y∈[s,1)  outside the circle, contributes nothing
//	RegionLower  x∈[s,1) y∈[0,s)  sampled
//	RegionUpper  x∈[0,s) y∈[s,1)  mirror of RegionLower under x↔y, inferred
//
// Only RegionLower is sampled by the estimator.
package geometry

import "math"

var (
	// Split is the coordinate 1/√2 partitioning each axis.
	Split = 1.0 / math.Sqrt(2.0)
	// Width is the extent 1 - Split of the boundary regions along the split axis.
	Width = 1.0 - Split
)

// Region identifies one of the four parts of the decomposed square.
type Region int

const (
	RegionUnspecified Region = iota
	RegionInner
	RegionOuter
	RegionLower
	RegionUpper
)

func (r Region) String() string {
	switch r {
	case RegionInner:
		return "inner"
	case RegionOuter:
		return "outer"
	case RegionLower:
		return "lower"
	case RegionUpper:
		return "upper"
	default:
		return "unspecified"
	}
}

// Point is a location in the unit square.
type Point struct {
	X float64
	Y float64
}

// RadiusSquared returns x² + y².
func (p Point) RadiusSquared() float64 {
	// Explicit conversions keep the compiler from fusing into an FMA, which
	// would make results differ between architectures.
	return float64(p.X*p.X) + float64(p.Y*p.Y)
}

// Inside reports whether p lies inside or on the unit circle.
func (p Point) Inside() bool {
	return Hit(p.RadiusSquared())
}

// Hit reports whether a squared radius counts as a hit. The boundary is inclusive.
func Hit(rsq float64) bool {
	return rsq <= 1.0
}

// MapLower maps two uniform variates in [0,1) onto RegionLower.
func MapLower(u1, u2 float64) Point {
	return Point{
		X: Split + float64(Width*u1),
		Y: Split * u2,
	}
}

// MapUpper maps two uniform variates in [0,1) onto RegionUpper. It is the
// reflection of MapLower and is only used to validate the symmetry argument.
func MapUpper(u1, u2 float64) Point {
	return Point{
		X: Split * u2,
		Y: Split + float64(Width*u1),
	}
}

// Classify returns the region containing p. Points outside [0,1)² are
// RegionUnspecified.
func Classify(p Point) Region {
	if p.X < 0 || p.X >= 1 || p.Y < 0 || p.Y >= 1 {
		return RegionUnspecified
	}
	lowX := p.X < Split
	lowY := p.Y < Split
	switch {
	case lowX && lowY:
		return RegionInner
	case !lowX && !lowY:
		return RegionOuter
	case !lowX && lowY:
		return RegionLower
	default:
		return RegionUpper
	}
}

// Areas holds the area fraction of each region.
type Areas struct {
	Inner float64 // f1 = s²
	Outer float64 // f2 = (1-s)²
	Lower float64 // f3 = s(1-s)
	Upper float64 // f4 = f3
}

// Fractions returns the area fractions of the decomposition.
func Fractions() Areas {
	lower := (1.0 - Split) * Split
	return Areas{
		Inner: Split * Split,
		Outer: (1.0 - Split) * (1.0 - Split),
		Lower: lower,
		Upper: lower,
	}
}

// Sampled returns f3 + f4, the area whose contribution is estimated.
func (a Areas) Sampled() float64 {
	return a.Lower + a.Upper
}

// Sum returns f1 + f2 + f3 + f4, which is 1 up to rounding.
func (a Areas) Sum() float64 {
	return a.Inner + a.Outer + a.Lower + a.Upper
}
