package train_test

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/geom"
	"github.com/chazu/gearsim/pkg/train"
)

func profile(t *testing.T, teeth int, typ gear.Type) *gear.Profile {
	t.Helper()
	p := gear.DefaultParams(teeth)
	p.Type = typ
	p.Boundary = gear.DefaultBoundary(teeth, p.DiametralPitch, typ)
	prof, err := gear.Synthesize(p)
	require.NoError(t, err)
	return prof
}

func TestAttachExternalPair(t *testing.T) {
	parent := train.NewRoot("driver", profile(t, 24, gear.External), v2.Vec{X: 1, Y: 2})
	child := train.NewNode("idler", profile(t, 18, gear.External))

	require.NoError(t, train.AttachChild(parent, child, 0))

	want := parent.Profile().PitchRadius() + child.Profile().PitchRadius()
	got := child.Position().Sub(parent.Position()).Length()
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, 1+want, child.Position().X, 1e-12)
	assert.InDelta(t, 2, child.Position().Y, 1e-12)
	assert.Same(t, parent, child.Parent())
	assert.True(t, parent.IsRoot())
	assert.False(t, child.IsRoot())
	require.Len(t, parent.Children(), 1)
	assert.Same(t, child, parent.Children()[0].Child)
}

func TestAttachInsideRing(t *testing.T) {
	ring := train.NewRoot("ring", profile(t, 60, gear.Internal), v2.Vec{})
	planet := train.NewNode("planet", profile(t, 20, gear.External))

	angle := geom.Radians(30)
	require.NoError(t, ring.Attach(planet, angle))

	dist := ring.Profile().PitchRadius() - planet.Profile().PitchRadius()
	assert.InDelta(t, dist*math.Cos(angle), planet.Position().X, 1e-12)
	assert.InDelta(t, dist*math.Sin(angle), planet.Position().Y, 1e-12)
}

func TestAttachUnsupportedMeshing(t *testing.T) {
	tests := []struct {
		name        string
		parent, kid gear.Type
	}{
		{"internal in internal", gear.Internal, gear.Internal},
		{"internal child of external", gear.External, gear.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := train.NewRoot("a", profile(t, 60, tt.parent), v2.Vec{})
			child := train.NewNode("b", profile(t, 40, tt.kid))

			err := train.AttachChild(parent, child, 1)
			require.ErrorIs(t, err, train.ErrUnsupportedMeshing)
			assert.Empty(t, parent.Children())
			assert.Nil(t, child.Parent())
			assert.Equal(t, v2.Vec{}, child.Position())
		})
	}
}

func TestAttachTwice(t *testing.T) {
	a := train.NewRoot("a", profile(t, 20, gear.External), v2.Vec{})
	b := train.NewRoot("b", profile(t, 20, gear.External), v2.Vec{X: 50})
	c := train.NewNode("c", profile(t, 10, gear.External))

	require.NoError(t, a.Attach(c, 0))
	before := c.Position()

	err := b.Attach(c, math.Pi)
	require.ErrorIs(t, err, train.ErrAlreadyAttached)
	assert.Empty(t, b.Children())
	assert.Equal(t, before, c.Position())
	assert.Same(t, a, c.Parent())
}

func TestAttachCycle(t *testing.T) {
	a := train.NewRoot("a", profile(t, 20, gear.External), v2.Vec{})
	b := train.NewNode("b", profile(t, 20, gear.External))
	require.NoError(t, a.Attach(b, 0))

	require.ErrorIs(t, b.Attach(a, 0), train.ErrCycle)
	require.ErrorIs(t, a.Attach(a, 0), train.ErrCycle)
	assert.Empty(t, b.Children())
}

func TestUpdateExternalScenario(t *testing.T) {
	parent := train.NewRoot("p", profile(t, 24, gear.External), v2.Vec{})
	child := train.NewNode("c", profile(t, 18, gear.External))
	require.NoError(t, parent.Attach(child, 0))

	parent.SetRotation(math.Pi / 4)
	train.Update(parent)

	assert.InDelta(t, math.Pi-math.Pi/3, child.Rotation(), 1e-12)
}

func TestUpdateInternalParent(t *testing.T) {
	ring := train.NewRoot("ring", profile(t, 60, gear.Internal), v2.Vec{})
	planet := train.NewNode("planet", profile(t, 20, gear.External))
	joint := 0.3
	require.NoError(t, ring.Attach(planet, joint))

	ring.SetRotation(0.5)
	train.Update(ring)

	want := math.Pi + (0.5+joint)*3 - joint
	assert.InDelta(t, want, planet.Rotation(), 1e-12)
}

func TestUpdatePropagatesDownChain(t *testing.T) {
	a := train.NewRoot("a", profile(t, 30, gear.External), v2.Vec{})
	b := train.NewNode("b", profile(t, 15, gear.External))
	c := train.NewNode("c", profile(t, 45, gear.External))
	require.NoError(t, a.Attach(b, 0.2))
	require.NoError(t, b.Attach(c, -1.1))

	a.SetRotation(0.7)
	train.Update(a)

	bRot := math.Pi - (0.7+0.2)*2 - 0.2
	cRot := math.Pi - (bRot-1.1)*(15.0/45.0) + 1.1
	assert.InDelta(t, bRot, b.Rotation(), 1e-12)
	assert.InDelta(t, cRot, c.Rotation(), 1e-12)
	assert.Equal(t, 3, train.Count(a))
}

func TestUpdateIsIdempotent(t *testing.T) {
	a := train.NewRoot("a", profile(t, 24, gear.External), v2.Vec{})
	b := train.NewNode("b", profile(t, 18, gear.External))
	c := train.NewNode("c", profile(t, 12, gear.External))
	require.NoError(t, a.Attach(b, 0.4))
	require.NoError(t, a.Attach(c, 2.5))

	a.SetRotation(1.234)
	train.Update(a)
	first := []float64{b.Rotation(), c.Rotation()}
	train.Update(a)
	assert.Equal(t, first, []float64{b.Rotation(), c.Rotation()})
}

// Stepping the root many times must land descendants exactly where a single
// jump to the same root angle puts them.
func TestUpdateDoesNotDrift(t *testing.T) {
	a := train.NewRoot("a", profile(t, 24, gear.External), v2.Vec{})
	b := train.NewNode("b", profile(t, 7, gear.External))
	require.NoError(t, a.Attach(b, 0))

	for i := 0; i < 10000; i++ {
		a.Advance(0.001)
		train.Update(a)
	}
	stepped := b.Rotation()

	a.SetRotation(a.Rotation())
	train.Update(a)
	assert.Equal(t, stepped, b.Rotation())
	assert.InDelta(t, math.Pi-a.Rotation()*24.0/7.0, b.Rotation(), 1e-9)
}

func TestTransformedOutlineTranslatesAtZeroRotation(t *testing.T) {
	parent := train.NewRoot("p", profile(t, 24, gear.External), v2.Vec{})
	child := train.NewNode("c", profile(t, 18, gear.External))
	require.NoError(t, parent.Attach(child, 0))

	out := child.TransformedOutline(nil)
	src := child.Profile().Outline()
	require.Len(t, out, len(src))
	for i := range src {
		assert.InDelta(t, src[i].X+child.Position().X, out[i].X, 1e-12)
		assert.InDelta(t, src[i].Y+child.Position().Y, out[i].Y, 1e-12)
	}
	assert.InDelta(t, 3+2.25, child.Position().X, 1e-12)
}

func TestTransformedOutlineRotatesThenTranslates(t *testing.T) {
	n := train.NewRoot("n", profile(t, 12, gear.External), v2.Vec{X: 10, Y: -4})
	n.SetRotation(math.Pi / 2)

	out := n.TransformedOutline(make([]v2.Vec, 0, 4))
	src := n.Profile().Outline()
	for i := range src {
		// (x, y) rotated a quarter turn is (-y, x).
		assert.InDelta(t, -src[i].Y+10, out[i].X, 1e-9)
		assert.InDelta(t, src[i].X-4, out[i].Y, 1e-9)
	}

	bnd := n.TransformedBoundary(nil)
	for _, p := range bnd {
		assert.InDelta(t, n.Profile().BoundaryRadius(), p.Sub(n.Position()).Length(), 1e-9)
	}
}

func TestWalkOrderAndPrune(t *testing.T) {
	a := train.NewRoot("a", profile(t, 20, gear.External), v2.Vec{})
	b := train.NewNode("b", profile(t, 20, gear.External))
	c := train.NewNode("c", profile(t, 20, gear.External))
	d := train.NewNode("d", profile(t, 20, gear.External))
	require.NoError(t, a.Attach(b, 0))
	require.NoError(t, b.Attach(d, 0))
	require.NoError(t, a.Attach(c, math.Pi))

	var names []string
	train.Walk(a, func(n *train.Node, depth int) bool {
		names = append(names, n.Name)
		return n.Name != "b"
	})
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestCenterDistance(t *testing.T) {
	ext := profile(t, 24, gear.External)
	small := profile(t, 12, gear.External)
	ring := profile(t, 60, gear.Internal)

	d, err := train.CenterDistance(ext, small)
	require.NoError(t, err)
	assert.InDelta(t, 3+1.5, d, 1e-12)

	d, err = train.CenterDistance(ring, small)
	require.NoError(t, err)
	assert.InDelta(t, 7.5-1.5, d, 1e-12)

	_, err = train.CenterDistance(small, ring)
	require.ErrorIs(t, err, train.ErrUnsupportedMeshing)
}
