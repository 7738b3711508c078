package gear

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/pkg/geom"
)

const (
	// DefaultEpsilon is the distance below which two outline points are
	// considered the same point.
	DefaultEpsilon = 1e-3

	// DefaultTraceLimit bounds the involute parameter, in degrees.
	DefaultTraceLimit = 100.0

	// initialTraceStep is used until the flank first enters the tooth band.
	initialTraceStep = 0.1
)

// Profile is an immutable gear outline. The slices returned by Outline and
// Boundary are shared between every user of the profile and must not be
// modified.
type Profile struct {
	params         Params
	outline        []v2.Vec
	boundary       []v2.Vec
	baseAngle      float64
	pointsPerTooth int
	radiusMin      float64
	radiusMax      float64
}

type synthOptions struct {
	epsilon    float64
	traceLimit float64
}

// Option tunes synthesis.
type Option func(*synthOptions)

// WithEpsilon sets the duplicate-point tolerance.
func WithEpsilon(eps float64) Option {
	return func(o *synthOptions) {
		if eps > 0 {
			o.epsilon = eps
		}
	}
}

// WithTraceLimit caps the involute parameter (degrees) the flank trace may
// reach before giving up with ErrProfileConvergence.
func WithTraceLimit(deg float64) Option {
	return func(o *synthOptions) {
		o.traceLimit = deg
	}
}

// Synthesize builds the outline of the gear described by p. Validation
// failures wrap ErrInvalidParameter or ErrInvalidBoundary; a trace that
// never reaches the tip radius wraps ErrProfileConvergence. No profile is
// returned on error.
func Synthesize(p Params, opts ...Option) (*Profile, error) {
	o := synthOptions{epsilon: DefaultEpsilon, traceLimit: DefaultTraceLimit}
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	rmin := RadiusMin(p.Teeth, p.DiametralPitch, p.Type)
	rmax := RadiusMax(p.Teeth, p.DiametralPitch, p.Type)
	pitchRadius := p.PitchRadius()
	rbase := pitchRadius * math.Cos(p.PressureAngle)

	flank, ac, err := traceFlank(p.Teeth, rbase, rmin, rmax, pitchRadius, o.traceLimit)
	if err != nil {
		return nil, err
	}

	degreesPerTooth := 360 / float64(p.Teeth)
	tooth := shapeTooth(flank, rmin, ac, degreesPerTooth)
	tooth = dropDuplicates(tooth, degreesPerTooth, o.epsilon)

	// Replicate the tooth around the gear, then rotate everything by ac so
	// the flank crosses the pitch circle at angle zero.
	outline := make([]v2.Vec, 0, len(tooth)*p.Teeth)
	for i := 0; i < p.Teeth; i++ {
		offset := degreesPerTooth * float64(i)
		for _, pt := range tooth {
			q := geom.Polar{R: pt.R, A: pt.A + offset}
			outline = append(outline, q.ToLinear())
		}
	}
	outline = geom.RotatePoints(outline, outline, geom.Radians(ac))

	return &Profile{
		params:         p,
		outline:        outline,
		boundary:       Circle(len(outline), p.Boundary),
		baseAngle:      ac,
		pointsPerTooth: len(tooth),
		radiusMin:      rmin,
		radiusMax:      rmax,
	}, nil
}

// traceFlank walks the involute of the base circle and returns one flank
// of a tooth in polar form, starting with a root point at angle zero, and
// the angle at which the flank crosses the pitch circle.
func traceFlank(teeth int, rbase, rmin, rmax, pitchRadius, limit float64) ([]geom.Polar, float64, error) {
	pts := []geom.Polar{{R: rmin, A: 0}}
	ac := 0.0
	step := initialTraceStep
	entered := false

	for i := 1.0; i < limit; i += step {
		// A point on the base circle plus the unwound tangent, whose length
		// equals the arc length from the start of the involute.
		bx, by := geom.PolarToLinear(rbase, i)
		length := rbase * 2 * math.Pi / 360 * i
		ox, oy := geom.PolarToLinear(length, i-90)
		r, a := geom.LinearToPolar(bx+ox, by+oy)

		if r < rmin {
			continue
		}
		if !entered {
			entered = true
			step = 2 / float64(teeth) * 10
		}
		if r < pitchRadius {
			ac = a
		}
		if r > rmax {
			pts = append(pts, geom.Polar{R: rmax, A: a})
			return pts, ac, nil
		}
		pts = append(pts, geom.Polar{R: r, A: a})
	}

	if !entered {
		return nil, 0, fmt.Errorf("%w: involute never entered the band [%g, %g] within %g°",
			ErrProfileConvergence, rmin, rmax, limit)
	}
	return nil, 0, fmt.Errorf("%w: involute did not reach tip radius %g within %g°",
		ErrProfileConvergence, rmax, limit)
}

// shapeTooth turns a traced flank into a full tooth: it fixes the phase of
// the root point, trims points past the mirror line and appends the mirrored
// flank in reverse order.
func shapeTooth(flank []geom.Polar, rmin, ac, degreesPerTooth float64) []geom.Polar {
	ma := degreesPerTooth/2 + 2*ac

	fpa := 0.0
	if degreesPerTooth-ma <= 0 {
		fpa = -(degreesPerTooth - ma) / 2
	}
	flank[0] = geom.Polar{R: rmin, A: fpa}

	n := len(flank)
	for n > 1 && flank[n-1].A > ma/2 {
		n--
	}
	flank = flank[:n]

	tooth := make([]geom.Polar, 0, 2*n)
	tooth = append(tooth, flank...)
	for i := n - 1; i >= 0; i-- {
		tooth = append(tooth, geom.Polar{R: flank[i].R, A: ma - flank[i].A})
	}
	return tooth
}

// dropDuplicates removes adjacent points closer than eps, including the
// seam between the last point of one tooth and the first of the next, so
// that the replicated outline has no repeated vertices.
func dropDuplicates(tooth []geom.Polar, degreesPerTooth, eps float64) []geom.Polar {
	out := tooth[:0:0]
	var prev v2.Vec
	for i, pt := range tooth {
		cur := pt.ToLinear()
		if i > 0 && cur.Sub(prev).Length() < eps {
			continue
		}
		out = append(out, pt)
		prev = cur
	}

	if len(out) > 1 {
		next := geom.Polar{R: out[0].R, A: out[0].A + degreesPerTooth}.ToLinear()
		if out[len(out)-1].ToLinear().Sub(next).Length() < eps {
			out = out[:len(out)-1]
		}
	}
	return out
}

// Circle returns n points evenly spaced on a circle of the given radius,
// starting on the positive Y axis.
func Circle(n int, radius float64) []v2.Vec {
	pts := make([]v2.Vec, n)
	if n == 0 {
		return pts
	}
	step := 2 * math.Pi / float64(n)
	for i := range pts {
		pts[i] = v2.Vec{
			X: math.Sin(step*float64(i)) * radius,
			Y: math.Cos(step*float64(i)) * radius,
		}
	}
	return pts
}

// Params returns the parameters the profile was built from.
func (p *Profile) Params() Params { return p.params }

// Teeth returns the tooth count.
func (p *Profile) Teeth() int { return p.params.Teeth }

// Type returns whether the gear is internal or external.
func (p *Profile) Type() Type { return p.params.Type }

// DiametralPitch returns teeth per unit of pitch diameter.
func (p *Profile) DiametralPitch() float64 { return p.params.DiametralPitch }

// PressureAngle returns the pressure angle in radians.
func (p *Profile) PressureAngle() float64 { return p.params.PressureAngle }

// PitchDiameter returns teeth / diametral pitch.
func (p *Profile) PitchDiameter() float64 { return p.params.PitchDiameter() }

// PitchRadius returns half the pitch diameter.
func (p *Profile) PitchRadius() float64 { return p.params.PitchRadius() }

// BoundaryRadius returns the bore (external) or rim (internal) radius.
func (p *Profile) BoundaryRadius() float64 { return p.params.Boundary }

// RadiusMin returns the inner edge of the tooth band.
func (p *Profile) RadiusMin() float64 { return p.radiusMin }

// RadiusMax returns the outer edge of the tooth band.
func (p *Profile) RadiusMax() float64 { return p.radiusMax }

// BaseAngle returns, in degrees, the rotation already applied to Outline
// to put the pitch-circle contact point at angle zero.
func (p *Profile) BaseAngle() float64 { return p.baseAngle }

// PointsPerTooth returns how many outline points make up one tooth.
func (p *Profile) PointsPerTooth() int { return p.pointsPerTooth }

// Outline returns the toothed polygon. Do not modify it.
func (p *Profile) Outline() []v2.Vec { return p.outline }

// Boundary returns the bore circle of an external gear or the rim circle
// of an internal gear, with as many points as Outline. Do not modify it.
func (p *Profile) Boundary() []v2.Vec { return p.boundary }

// Outer returns the outer polygon of the gear body: the teeth for external
// gears, the rim for internal ones.
func (p *Profile) Outer() []v2.Vec {
	if p.params.Type == Internal {
		return p.boundary
	}
	return p.outline
}

// Inner returns the polygon cut out of the gear body.
func (p *Profile) Inner() []v2.Vec {
	if p.params.Type == Internal {
		return p.outline
	}
	return p.boundary
}

func (p *Profile) String() string {
	return fmt.Sprintf("%s gear %d teeth, pitch %g, pressure angle %.1f°",
		p.params.Type, p.params.Teeth, p.params.DiametralPitch, geom.Degrees(p.params.PressureAngle))
}
