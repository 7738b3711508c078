// Package geom holds the 2D primitives shared by profile synthesis, the
// kinematic tree and contact diagnostics. Points are sdfx v2 vectors so
// that outlines can be handed to the geometry kernel without copying.
package geom

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Polar is a polar coordinate. A is in degrees and grows clockwise: both
// conversions below flip Y, and tooth mirroring depends on that sign.
type Polar struct {
	R float64
	A float64
}

func (p Polar) String() string {
	return fmt.Sprintf("R: %g, A: %g°", p.R, p.A)
}

// ToLinear converts p to Cartesian coordinates.
func (p Polar) ToLinear() v2.Vec {
	x, y := PolarToLinear(p.R, p.A)
	return v2.Vec{X: x, Y: y}
}

// LinearToPolar converts a Cartesian point to polar form with the angle
// normalized to [0, 360). It inverts PolarToLinear. The angle is NaN at
// the origin.
func LinearToPolar(x, y float64) (r, angle float64) {
	r = math.Sqrt(x*x + y*y)

	// Rounding can push |y/r| just past 1 and asin would return NaN.
	s := -y / r
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	angle = Degrees(math.Asin(s))
	if x < 0 {
		angle = 180 - angle
	}
	angle = math.Mod(angle+360, 360)
	return r, angle
}

// ToPolar converts a vector with LinearToPolar.
func ToPolar(v v2.Vec) Polar {
	r, a := LinearToPolar(v.X, v.Y)
	return Polar{R: r, A: a}
}

// PolarToLinear converts a polar coordinate (angle in degrees) to
// Cartesian coordinates with y = -r·sin(a).
func PolarToLinear(r, angle float64) (x, y float64) {
	a := Radians(NormalizeDegrees(angle))
	return r * math.Cos(a), -r * math.Sin(a)
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
