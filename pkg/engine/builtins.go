package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/graph"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(gear-ref %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknownKeywords reports any keyword in pa that is not in allowed.
func unknownKeywords(form string, pa kwArgs, allowed ...string) error {
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s (expected one of :%s)", form, k, strings.Join(allowed, " :"))
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a Sexp. Floats are accepted only when
// they hold a whole number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected whole number, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toGearType converts :external or :internal to a gear.Type.
func toGearType(s zygo.Sexp) (gear.Type, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected :external or :internal: %w", err)
	}
	t, err := gear.ParseType(name)
	if err != nil {
		return 0, fmt.Errorf("invalid gear type %q, expected external or internal", name)
	}
	return t, nil
}

// toGearRef resolves a node reference, or a gear name given as a string,
// to a gear node in g.
func toGearRef(g *graph.DesignGraph, s zygo.Sexp) (*graph.Node, error) {
	var n *graph.Node
	switch v := s.(type) {
	case *sexpNodeRef:
		n = g.Get(v.id)
	case *zygo.SexpStr:
		n = g.Lookup(v.S)
		if n == nil {
			return nil, fmt.Errorf("no gear named %q", v.S)
		}
	default:
		return nil, fmt.Errorf("expected gear reference, got %T (%s)", s, s.SexpString(nil))
	}
	if n == nil || n.Kind != graph.NodeGear {
		return nil, fmt.Errorf("reference %s is not a gear", s.SexpString(nil))
	}
	return n, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flattenRefs expands lists and arrays so (train "t" (list a b) c) and
// (train "t" a b c) are the same.
func flattenRefs(args []zygo.Sexp) ([]zygo.Sexp, error) {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		default:
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all scene builtins into a zygomys environment.
// The builtins operate on the provided DesignGraph, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.DesignGraph) {

	// -----------------------------------------------------------------------
	// (gear-defaults :pitch 8 :pressure-angle 14.5 :speed 1.0)
	// -----------------------------------------------------------------------
	env.AddFunction("gear_defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := unknownKeywords("gear-defaults", pa, "pitch", "pressure-angle", "speed"); err != nil {
			return zygo.SexpNull, err
		}

		if v, ok := pa.kw["pitch"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("gear-defaults: pitch: %w", err)
			}
			g.Defaults.DiametralPitch = f
		}
		if v, ok := pa.kw["pressure-angle"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("gear-defaults: pressure-angle: %w", err)
			}
			g.Defaults.PressureAngle = f
		}
		if v, ok := pa.kw["speed"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("gear-defaults: speed: %w", err)
			}
			g.Defaults.DriveSpeed = f
		}

		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (gear "name" :teeth 24 :pitch 4 :pressure-angle 20 :type :external
	//       :bore 0.5 :color "#cc3333" :x 0 :y 0)
	// -----------------------------------------------------------------------
	env.AddFunction("gear", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("gear requires a name argument")
		}
		gearName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("gear: name: %w", err)
		}
		if gearName == "" {
			return zygo.SexpNull, fmt.Errorf("gear: name must not be empty")
		}
		if g.Lookup(gearName) != nil {
			return zygo.SexpNull, fmt.Errorf("gear: duplicate name %q", gearName)
		}
		if err := unknownKeywords("gear", pa, "teeth", "pitch", "pressure-angle", "type", "bore", "color", "x", "y"); err != nil {
			return zygo.SexpNull, err
		}

		gd := graph.GearData{
			DiametralPitch: g.Defaults.DiametralPitch,
			PressureAngle:  g.Defaults.PressureAngle,
			Type:           gear.External,
		}

		v, ok := pa.kw["teeth"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("gear %q: :teeth is required", gearName)
		}
		if gd.Teeth, err = toInt(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("gear %q: teeth: %w", gearName, err)
		}
		if v, ok := pa.kw["pitch"]; ok {
			if gd.DiametralPitch, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: pitch: %w", gearName, err)
			}
		}
		if v, ok := pa.kw["pressure-angle"]; ok {
			if gd.PressureAngle, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: pressure-angle: %w", gearName, err)
			}
		}
		if v, ok := pa.kw["type"]; ok {
			if gd.Type, err = toGearType(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: type: %w", gearName, err)
			}
		}
		if v, ok := pa.kw["bore"]; ok {
			if gd.Bore, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: bore: %w", gearName, err)
			}
		}
		if v, ok := pa.kw["color"]; ok {
			if gd.Color, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: color: %w", gearName, err)
			}
		}
		if v, ok := pa.kw["x"]; ok {
			if gd.X, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: x: %w", gearName, err)
			}
		}
		if v, ok := pa.kw["y"]; ok {
			if gd.Y, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("gear %q: y: %w", gearName, err)
			}
		}

		id := graph.NewNodeID("gear/" + gearName)
		g.AddNode(&graph.Node{
			ID:   id,
			Kind: graph.NodeGear,
			Name: gearName,
			Data: gd,
		})

		return &sexpNodeRef{id: id, name: gearName}, nil
	})

	// -----------------------------------------------------------------------
	// (gear-ref "name")
	// -----------------------------------------------------------------------
	env.AddFunction("gear_ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("gear-ref requires a name argument")
		}
		gearName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("gear-ref: name: %w", err)
		}
		n := g.Lookup(gearName)
		if n == nil || n.Kind != graph.NodeGear {
			return zygo.SexpNull, fmt.Errorf("gear-ref: no gear named %q", gearName)
		}
		return &sexpNodeRef{id: n.ID, name: gearName}, nil
	})

	// -----------------------------------------------------------------------
	// (mesh parent child :angle 90)
	//
	// Returns the child so meshes can be chained:
	//   (mesh (mesh sun planet) moon :angle 45)
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("mesh requires a parent and a child gear, got %d arguments", len(pa.positional))
		}
		if err := unknownKeywords("mesh", pa, "angle"); err != nil {
			return zygo.SexpNull, err
		}
		parent, err := toGearRef(g, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: parent: %w", err)
		}
		child, err := toGearRef(g, pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: child: %w", err)
		}
		if m := g.ParentMesh(child.ID); m != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: gear %q is already attached to %q",
				child.Name, g.NameOf(m.Data.(graph.MeshData).Parent))
		}

		md := graph.MeshData{Parent: parent.ID, Child: child.ID}
		if v, ok := pa.kw["angle"]; ok {
			if md.Angle, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: angle: %w", err)
			}
		}

		g.AddNode(&graph.Node{
			ID:   graph.NewNodeID("mesh/" + parent.Name + "/" + child.Name),
			Kind: graph.NodeMesh,
			Data: md,
		})

		return &sexpNodeRef{id: child.ID, name: child.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (drive gear :speed 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("drive", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("drive requires exactly one gear, got %d arguments", len(pa.positional))
		}
		if err := unknownKeywords("drive", pa, "speed"); err != nil {
			return zygo.SexpNull, err
		}
		target, err := toGearRef(g, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("drive: %w", err)
		}
		if g.DriveOf(target.ID) != nil {
			return zygo.SexpNull, fmt.Errorf("drive: gear %q is already driven", target.Name)
		}

		dd := graph.DriveData{Target: target.ID, Speed: g.Defaults.DriveSpeed}
		if v, ok := pa.kw["speed"]; ok {
			if dd.Speed, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("drive: speed: %w", err)
			}
		}

		g.AddNode(&graph.Node{
			ID:   graph.NewNodeID("drive/" + target.Name),
			Kind: graph.NodeDrive,
			Data: dd,
		})

		return &sexpNodeRef{id: target.ID, name: target.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (train "name" sun ring ...)
	//
	// Once any train exists, only the trees its members belong to are
	// simulated.
	// -----------------------------------------------------------------------
	env.AddFunction("train", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("train requires a name argument")
		}
		trainName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("train: name: %w", err)
		}
		if g.Lookup(trainName) != nil {
			return zygo.SexpNull, fmt.Errorf("train: duplicate name %q", trainName)
		}

		members, err := flattenRefs(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("train: %w", err)
		}
		var children []graph.NodeID
		for i, m := range members {
			n, err := toGearRef(g, m)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("train: member %d: %w", i+1, err)
			}
			children = append(children, n.ID)
		}

		id := graph.NewNodeID("train/" + trainName)
		g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     trainName,
			Children: children,
			Data:     graph.GroupData{},
		})
		g.AddRoot(id)

		return &sexpNodeRef{id: id, name: trainName}, nil
	})
}
