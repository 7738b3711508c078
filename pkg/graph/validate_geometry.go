package graph

import (
	"fmt"
	"math"

	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/geom"
)

// ---------------------------------------------------------------------------
// Tier 2: parametric and placement validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateGearParams(g)...)
	errs = append(errs, validateMeshTypes(g)...)

	warnings = append(warnings, validateRingSize(g)...)
	warnings = append(warnings, validateSiblingClearance(g)...)

	return errs, warnings
}

// validateGearParams runs the synthesizer's own parameter checks on every
// gear so that bad input is reported before any profile is built.
func validateGearParams(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, n := range g.Gears() {
		d, ok := n.Data.(GearData)
		if !ok {
			continue
		}
		if err := d.Params().Validate(); err != nil {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("gear %q: %v", g.NameOf(n.ID), err),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// meshPair resolves a mesh node to its two gears. ok is false if either
// end is missing or is not a gear.
func meshPair(g *DesignGraph, m *Node) (d MeshData, parent, child GearData, ok bool) {
	d, ok = m.Data.(MeshData)
	if !ok {
		return d, parent, child, false
	}
	pn, cn := g.Nodes[d.Parent], g.Nodes[d.Child]
	if pn == nil || cn == nil {
		return d, parent, child, false
	}
	parent, pok := pn.Data.(GearData)
	child, cok := cn.Data.(GearData)
	return d, parent, child, pok && cok
}

// validateMeshTypes rejects meshings a kinematic tree cannot place: only an
// external child on an external or internal parent is supported.
func validateMeshTypes(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, m := range g.Meshes() {
		d, parent, child, ok := meshPair(g, m)
		if !ok {
			continue
		}
		if child.Type == gear.External {
			continue
		}
		errs = append(errs, ValidationError{
			NodeID: m.ID,
			Message: fmt.Sprintf("unsupported meshing: %s gear %q cannot carry %s gear %q",
				parent.Type, g.NameOf(d.Parent), child.Type, g.NameOf(d.Child)),
			Severity: SeverityError,
		})
	}

	return errs
}

// validateRingSize warns when a ring gear is not larger than the gear
// meshed inside it.
func validateRingSize(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, m := range g.Meshes() {
		d, parent, child, ok := meshPair(g, m)
		if !ok || parent.Type != gear.Internal {
			continue
		}
		if parent.Teeth <= child.Teeth {
			warnings = append(warnings, ValidationWarning{
				NodeID: m.ID,
				Message: fmt.Sprintf("ring gear %q has %d teeth but carries %q with %d; the child will not fit inside",
					g.NameOf(d.Parent), parent.Teeth, g.NameOf(d.Child), child.Teeth),
			})
		}
	}

	return warnings
}

// validateSiblingClearance warns when two children of the same parent are
// placed so close that their tip circles overlap.
func validateSiblingClearance(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	type placed struct {
		id     NodeID
		center [2]float64
		reach  float64
	}

	for _, pn := range g.Gears() {
		var kids []placed
		for _, m := range g.ChildMeshes(pn.ID) {
			d, parent, child, ok := meshPair(g, m)
			if !ok || child.Type != gear.External {
				continue
			}
			pp, cp := parent.Params(), child.Params()
			if pp.Validate() != nil || cp.Validate() != nil {
				continue
			}
			dist := pp.PitchRadius() + cp.PitchRadius()
			if parent.Type == gear.Internal {
				dist = pp.PitchRadius() - cp.PitchRadius()
			}
			a := geom.Radians(d.Angle)
			kids = append(kids, placed{
				id:     d.Child,
				center: [2]float64{dist * math.Cos(a), dist * math.Sin(a)},
				reach:  gear.RadiusMax(cp.Teeth, cp.DiametralPitch, cp.Type),
			})
		}

		for i := 0; i < len(kids); i++ {
			for j := i + 1; j < len(kids); j++ {
				a, b := kids[i], kids[j]
				gap := math.Hypot(a.center[0]-b.center[0], a.center[1]-b.center[1])
				if gap < a.reach+b.reach {
					warnings = append(warnings, ValidationWarning{
						NodeID: b.id,
						Message: fmt.Sprintf("gears %q and %q on %q overlap (centers %.3f apart, tips need %.3f)",
							g.NameOf(a.id), g.NameOf(b.id), g.NameOf(pn.ID), gap, a.reach+b.reach),
					})
				}
			}
		}
	}

	return warnings
}

// ---------------------------------------------------------------------------
// Tier 3: meshing advisories (warnings only)
// ---------------------------------------------------------------------------

// pitchTolerance is the largest diametral-pitch or pressure-angle
// difference treated as equal.
const pitchTolerance = 1e-9

// validateMeshing runs all Tier 3 advisory checks.
func validateMeshing(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning
	warnings = append(warnings, validateToothMatch(g)...)
	warnings = append(warnings, validateUndriven(g)...)
	warnings = append(warnings, validateChildPlacement(g)...)
	return warnings
}

// validateChildPlacement warns when a meshed gear was given a position; the
// mesh decides where it goes.
func validateChildPlacement(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, m := range g.Meshes() {
		d, _, child, ok := meshPair(g, m)
		if !ok || (child.X == 0 && child.Y == 0) {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			NodeID:  d.Child,
			Message: fmt.Sprintf("position of %q is ignored; it is placed by its mesh with %q", g.NameOf(d.Child), g.NameOf(d.Parent)),
		})
	}

	return warnings
}

// validateToothMatch warns when meshed gears have different diametral
// pitches or pressure angles: their teeth would not roll on each other.
func validateToothMatch(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, m := range g.Meshes() {
		d, parent, child, ok := meshPair(g, m)
		if !ok {
			continue
		}
		if math.Abs(parent.DiametralPitch-child.DiametralPitch) > pitchTolerance {
			warnings = append(warnings, ValidationWarning{
				NodeID: m.ID,
				Message: fmt.Sprintf("diametral pitch mismatch: %q is %g, %q is %g",
					g.NameOf(d.Parent), parent.DiametralPitch, g.NameOf(d.Child), child.DiametralPitch),
			})
		}
		if math.Abs(parent.PressureAngle-child.PressureAngle) > pitchTolerance {
			warnings = append(warnings, ValidationWarning{
				NodeID: m.ID,
				Message: fmt.Sprintf("pressure angle mismatch: %q is %g°, %q is %g°",
					g.NameOf(d.Parent), parent.PressureAngle, g.NameOf(d.Child), child.PressureAngle),
			})
		}
	}

	return warnings
}

// validateUndriven warns about trees whose root has no drive; they never
// turn.
func validateUndriven(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, root := range g.SceneRoots() {
		if g.DriveOf(root.ID) != nil {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			NodeID:  root.ID,
			Message: fmt.Sprintf("train rooted at %q is not driven", g.NameOf(root.ID)),
		})
	}

	return warnings
}
