// Package gear synthesizes involute gear outlines.
//
// A profile is built by tracing one flank of one tooth along the involute
// of the base circle in polar steps, mirroring it, and replicating the
// tooth around the pitch circle. Profiles are immutable once built and may
// be shared by any number of kinematic nodes.
package gear

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/gearsim/pkg/geom"
)

var (
	// ErrInvalidParameter reports out-of-range teeth, pitch or pressure angle.
	ErrInvalidParameter = errors.New("gear: invalid parameter")
	// ErrInvalidBoundary reports an axle or rim radius that overlaps the teeth.
	ErrInvalidBoundary = errors.New("gear: invalid boundary radius")
	// ErrProfileConvergence reports a flank trace that never reached the tip radius.
	ErrProfileConvergence = errors.New("gear: profile trace did not converge")
)

// Type says which way the teeth point.
type Type int

const (
	External Type = iota // teeth point outwards
	Internal             // teeth point inwards (ring gear)
)

func (t Type) String() string {
	switch t {
	case External:
		return "external"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType accepts "external" or "internal".
func ParseType(s string) (Type, error) {
	switch s {
	case "external", "ext":
		return External, nil
	case "internal", "int", "ring":
		return Internal, nil
	}
	return 0, fmt.Errorf("%w: unknown gear type %q", ErrInvalidParameter, s)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Tooth proportion offsets, in teeth, added to or taken from the tooth
// count before dividing by the diametral pitch. Internal gears swap them.
const (
	AddendumOffset         = 2.0
	DedendumOffset         = 2.3
	InternalAddendumOffset = 2.3
	InternalDedendumOffset = 2.0
)

// Default boundary heuristics used when a caller does not choose one.
const (
	DefaultInternalRimFactor  = 0.6 // times the outer diameter
	DefaultExternalBoreFactor = 0.2 // times the root diameter
)

// Parameter limits.
const (
	MinTeeth                = 5
	MinPressureAngleDeg     = 10.0
	MaxPressureAngleDeg     = 35.0
	DefaultPressureAngleDeg = 20.0
	DefaultDiametralPitch   = 4.0
)

// Params describes a gear to synthesize. PressureAngle is in radians.
// Boundary is the axle bore radius for external gears and the outer rim
// radius for internal gears.
type Params struct {
	Teeth          int
	DiametralPitch float64
	PressureAngle  float64
	Type           Type
	Boundary       float64
}

// DefaultParams returns a 20° external gear with the default pitch and a
// heuristic boundary radius.
func DefaultParams(teeth int) Params {
	p := Params{
		Teeth:          teeth,
		DiametralPitch: DefaultDiametralPitch,
		PressureAngle:  geom.Radians(DefaultPressureAngleDeg),
		Type:           External,
	}
	p.Boundary = DefaultBoundary(p.Teeth, p.DiametralPitch, p.Type)
	return p
}

// PitchDiameter is teeth / diametral pitch.
func (p Params) PitchDiameter() float64 {
	return float64(p.Teeth) / p.DiametralPitch
}

// PitchRadius is half the pitch diameter.
func (p Params) PitchRadius() float64 {
	return p.PitchDiameter() / 2
}

// RadiusMax is the tip radius of an external gear, or the root radius of an
// internal one: the outer edge of the tooth band either way.
func RadiusMax(teeth int, diametralPitch float64, t Type) float64 {
	off := AddendumOffset
	if t == Internal {
		off = InternalAddendumOffset
	}
	return (float64(teeth) + off) / diametralPitch / 2
}

// RadiusMin is the inner edge of the tooth band.
func RadiusMin(teeth int, diametralPitch float64, t Type) float64 {
	off := DedendumOffset
	if t == Internal {
		off = InternalDedendumOffset
	}
	return (float64(teeth) - off) / diametralPitch / 2
}

// DefaultBoundary picks a rim radius for internal gears and a bore radius
// for external ones.
func DefaultBoundary(teeth int, diametralPitch float64, t Type) float64 {
	if t == Internal {
		outerDiameter := 2 * RadiusMax(teeth, diametralPitch, t)
		return outerDiameter * DefaultInternalRimFactor
	}
	innerDiameter := 2 * RadiusMin(teeth, diametralPitch, t)
	return innerDiameter * DefaultExternalBoreFactor
}

// Validate checks p without synthesizing anything. The returned error
// wraps ErrInvalidParameter or ErrInvalidBoundary.
func (p Params) Validate() error {
	if p.Teeth < MinTeeth {
		return fmt.Errorf("%w: a gear needs at least %d teeth, got %d", ErrInvalidParameter, MinTeeth, p.Teeth)
	}
	if !(p.DiametralPitch > 0) || math.IsInf(p.DiametralPitch, 0) {
		return fmt.Errorf("%w: diametral pitch must be positive, got %g", ErrInvalidParameter, p.DiametralPitch)
	}
	lo, hi := geom.Radians(MinPressureAngleDeg), geom.Radians(MaxPressureAngleDeg)
	if !(p.PressureAngle >= lo && p.PressureAngle <= hi) {
		return fmt.Errorf("%w: pressure angle must be within [%g°, %g°], got %g°",
			ErrInvalidParameter, MinPressureAngleDeg, MaxPressureAngleDeg, geom.Degrees(p.PressureAngle))
	}
	if p.Type != External && p.Type != Internal {
		return fmt.Errorf("%w: unknown gear type %v", ErrInvalidParameter, p.Type)
	}

	rmin := RadiusMin(p.Teeth, p.DiametralPitch, p.Type)
	rmax := RadiusMax(p.Teeth, p.DiametralPitch, p.Type)
	switch {
	case !(p.Boundary > 0):
		return fmt.Errorf("%w: boundary radius must be positive, got %g", ErrInvalidBoundary, p.Boundary)
	case p.Type == Internal && p.Boundary < rmax:
		return fmt.Errorf("%w: rim radius %g of an internal gear must be at least the outer radius %g",
			ErrInvalidBoundary, p.Boundary, rmax)
	case p.Type == External && p.Boundary > rmin:
		return fmt.Errorf("%w: bore radius %g of an external gear must not exceed the root radius %g",
			ErrInvalidBoundary, p.Boundary, rmin)
	}
	return nil
}
