// Package scene turns a validated design graph into a forest of kinematic
// gear trees ready to simulate.
package scene

import (
	"errors"
	"fmt"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/internal/log"
	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/geom"
	"github.com/chazu/gearsim/pkg/graph"
	"github.com/chazu/gearsim/pkg/train"
)

// ErrInvalidGraph is returned when the graph fails validation.
var ErrInvalidGraph = errors.New("scene: invalid graph")

// Gear is one gear in the scene.
type Gear struct {
	ID    graph.NodeID
	Node  *train.Node
	Color string
}

// Root is the top of one kinematic tree. Only driven roots turn.
type Root struct {
	Node   *train.Node
	Speed  float64 // rad/s
	Driven bool
}

// Scene is a built gear forest. Gears are listed parents first, one tree
// after another, in the order the graph's trains name them.
type Scene struct {
	Gears []Gear
	Roots []Root

	byName map[string]int
}

// Build synthesizes a profile for every gear through cache and attaches
// the gears along the graph's meshes. When the graph declares trains only
// the trees their members belong to are built. Profiles with equal parameters are
// shared. The graph is validated first; any blocking finding fails the
// build with ErrInvalidGraph.
func Build(g *graph.DesignGraph, cache *gear.Cache) (*Scene, error) {
	res := graph.ValidateAll(g)
	if !res.OK() {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidGraph, strings.Join(msgs, "; "))
	}
	if cache == nil {
		cache = gear.NewCache()
	}

	s := &Scene{byName: make(map[string]int)}
	for _, rn := range g.SceneRoots() {
		root, err := s.newNode(g, rn, cache, true)
		if err != nil {
			return nil, err
		}
		r := Root{Node: root}
		if dn := g.DriveOf(rn.ID); dn != nil {
			if dd, ok := dn.Data.(graph.DriveData); ok {
				r.Speed = dd.Speed
				r.Driven = true
			}
		}
		s.Roots = append(s.Roots, r)

		if err := s.attachChildren(g, rn, root, cache); err != nil {
			return nil, err
		}
		train.Update(root)
	}

	log.Debug("scene built", "gears", len(s.Gears), "roots", len(s.Roots), "profiles", cache.Len())
	return s, nil
}

func (s *Scene) newNode(g *graph.DesignGraph, n *graph.Node, cache *gear.Cache, root bool) (*train.Node, error) {
	d, ok := n.Data.(graph.GearData)
	if !ok {
		return nil, fmt.Errorf("%w: node %q is %s, not gear", ErrInvalidGraph, g.NameOf(n.ID), n.Kind)
	}
	prof, err := cache.Get(d.Params())
	if err != nil {
		return nil, fmt.Errorf("gear %q: %w", n.Name, err)
	}

	var tn *train.Node
	if root {
		tn = train.NewRoot(n.Name, prof, v2.Vec{X: d.X, Y: d.Y})
	} else {
		tn = train.NewNode(n.Name, prof)
	}
	s.byName[n.Name] = len(s.Gears)
	s.Gears = append(s.Gears, Gear{ID: n.ID, Node: tn, Color: d.Color})
	log.Debug("gear", "name", n.Name, "profile", prof.String())
	return tn, nil
}

// attachChildren attaches parent's children depth-first, so every gear is
// positioned before anything meshes with it.
func (s *Scene) attachChildren(g *graph.DesignGraph, parent *graph.Node, pn *train.Node, cache *gear.Cache) error {
	for _, m := range g.ChildMeshes(parent.ID) {
		md, ok := m.Data.(graph.MeshData)
		if !ok {
			continue
		}
		cn := g.Get(md.Child)
		if cn == nil {
			return fmt.Errorf("%w: mesh child %s does not exist", ErrInvalidGraph, md.Child.Short())
		}
		child, err := s.newNode(g, cn, cache, false)
		if err != nil {
			return err
		}
		if err := pn.Attach(child, geom.Radians(md.Angle)); err != nil {
			return fmt.Errorf("mesh %q -> %q: %w", parent.Name, cn.Name, err)
		}
		if err := s.attachChildren(g, cn, child, cache); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the gear named name, or nil.
func (s *Scene) Lookup(name string) *train.Node {
	if i, ok := s.byName[name]; ok {
		return s.Gears[i].Node
	}
	return nil
}

// GearCount returns the number of gears in the scene.
func (s *Scene) GearCount() int { return len(s.Gears) }
