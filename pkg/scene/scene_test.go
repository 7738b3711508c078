package scene_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/gearsim/pkg/engine"
	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/graph"
	"github.com/chazu/gearsim/pkg/scene"
)

func evaluate(t *testing.T, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := engine.NewEngine().Evaluate(source)
	require.NoError(t, err)
	require.Empty(t, evalErrs)
	require.NotNil(t, g)
	return g
}

const planetary = `
(def ring (gear "ring" :teeth 72 :type :internal :x 1 :y 2))
(defn planet [label deg]
  (mesh ring (gear label :teeth 24) :angle deg))
(planet "p1" 0)
(planet "p2" 120)
(planet "p3" 240)
(drive ring :speed 0.5)
(train "planetary" ring)
`

func TestBuildPlanetary(t *testing.T) {
	cache := gear.NewCache()
	s, err := scene.Build(evaluate(t, planetary), cache)
	require.NoError(t, err)

	require.Len(t, s.Roots, 1)
	assert.True(t, s.Roots[0].Driven)
	assert.Equal(t, 0.5, s.Roots[0].Speed)
	assert.Equal(t, "ring", s.Roots[0].Node.Name)
	assert.InDelta(t, 1, s.Roots[0].Node.Position().X, 1e-12)
	assert.InDelta(t, 2, s.Roots[0].Node.Position().Y, 1e-12)

	require.Equal(t, 4, s.GearCount())
	names := make([]string, len(s.Gears))
	for i, g := range s.Gears {
		names[i] = g.Node.Name
	}
	assert.Equal(t, []string{"ring", "p1", "p2", "p3"}, names)

	// Identical planets share one profile.
	assert.Equal(t, 2, cache.Len())
	assert.Same(t, s.Lookup("p1").Profile(), s.Lookup("p3").Profile())

	ring := s.Lookup("ring")
	p2 := s.Lookup("p2")
	dist := ring.Profile().PitchRadius() - p2.Profile().PitchRadius()
	angle := 2 * math.Pi / 3
	assert.InDelta(t, 1+dist*math.Cos(angle), p2.Position().X, 1e-9)
	assert.InDelta(t, 2+dist*math.Sin(angle), p2.Position().Y, 1e-9)
	assert.Same(t, ring, p2.Parent())
}

func TestBuildAttachesRegardlessOfMeshOrder(t *testing.T) {
	// The second mesh's parent is itself only attached by the third.
	s, err := scene.Build(evaluate(t, `
(def a (gear "a" :teeth 20))
(def b (gear "b" :teeth 10))
(def c (gear "c" :teeth 30))
(mesh b c :angle 90)
(mesh a b)
(drive a)
`), nil)
	require.NoError(t, err)
	require.Len(t, s.Roots, 1)

	b, c := s.Lookup("b"), s.Lookup("c")
	assert.InDelta(t, b.Profile().PitchRadius()+c.Profile().PitchRadius(),
		c.Position().Sub(b.Position()).Length(), 1e-9)
	assert.InDelta(t, b.Position().X, c.Position().X, 1e-9)
}

func TestBuildUndrivenRoot(t *testing.T) {
	s, err := scene.Build(evaluate(t, `(gear "lonely" :teeth 12)`), nil)
	require.NoError(t, err)
	require.Len(t, s.Roots, 1)
	assert.False(t, s.Roots[0].Driven)
	assert.Zero(t, s.Roots[0].Speed)
}

func TestBuildRejectsInvalidGraph(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"internal child", `(mesh (gear "a" :teeth 20) (gear "r" :teeth 60 :type :internal))`},
		{"too few teeth", `(gear "tiny" :teeth 3)`},
		{"bore too large", `(gear "a" :teeth 20 :bore 10)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scene.Build(evaluate(t, tt.source), nil)
			require.ErrorIs(t, err, scene.ErrInvalidGraph)
		})
	}
}

func TestBuildPropagatesInitialRotation(t *testing.T) {
	s, err := scene.Build(evaluate(t, `(mesh (gear "a" :teeth 24) (gear "b" :teeth 12))`), nil)
	require.NoError(t, err)
	// An unturned external parent leaves its child half a turn round.
	assert.InDelta(t, math.Pi, s.Lookup("b").Rotation(), 1e-12)
	assert.Nil(t, s.Lookup("missing"))
}

func TestBuildKeepsOnlyTrainTrees(t *testing.T) {
	g := evaluate(t, `
(def a (gear "a" :teeth 20))
(def b (gear "b" :teeth 20 :x 10))
(mesh a (gear "c" :teeth 10))
(drive b)
(train "t" (gear-ref "c"))
`)
	s, err := scene.Build(g, nil)
	require.NoError(t, err)

	// c names its tree, so a roots the scene; b is driven but in no train.
	require.Len(t, s.Roots, 1)
	assert.Equal(t, "a", s.Roots[0].Node.Name)
	assert.False(t, s.Roots[0].Driven)
	assert.Equal(t, 2, s.GearCount())
	assert.NotNil(t, s.Lookup("c"))
	assert.Nil(t, s.Lookup("b"))

	var warned bool
	for _, w := range graph.ValidateAll(g).Warnings {
		if strings.Contains(w.Message, `"b" is not part of any train`) {
			warned = true
		}
	}
	assert.True(t, warned, "leaving b out should be reported")
}

func TestBuildWithoutTrainsKeepsEveryTree(t *testing.T) {
	s, err := scene.Build(evaluate(t, `
(gear "a" :teeth 20)
(drive (gear "b" :teeth 20 :x 10))
`), nil)
	require.NoError(t, err)
	require.Len(t, s.Roots, 2)
	assert.Equal(t, "a", s.Roots[0].Node.Name)
	assert.Equal(t, "b", s.Roots[1].Node.Name)
	assert.True(t, s.Roots[1].Driven)
}
