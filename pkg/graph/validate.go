package graph

import (
	"fmt"
	"math"
)

// ValidationSeverity indicates whether a validation finding blocks scene
// construction or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks scene construction
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs all Tier 1 structural validation checks on the design graph
// and returns a slice of validation errors. An empty slice means the graph is
// valid. This function is read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateParents(g)...)
	errs = append(errs, validateTree(g)...)
	errs = append(errs, validateDrives(g)...)
	errs = append(errs, validateRoots(g)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, parametric, advisory)
// and returns a ValidationResult with separated errors and warnings.
func ValidateAll(g *DesignGraph) ValidationResult {
	tier1 := Validate(g)
	tier2Errs, tier2Warnings := validateGeometry(g)
	tier3Warnings := validateMeshing(g)

	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)
	result.Warnings = append(result.Warnings, tier3Warnings...)

	return result
}

// refKind reports an error unless id names an existing node of kind want.
func refKind(g *DesignGraph, owner *Node, field string, id NodeID, want NodeKind) []ValidationError {
	target, ok := g.Nodes[id]
	if !ok {
		return []ValidationError{{
			NodeID:   owner.ID,
			Message:  fmt.Sprintf("%s %s reference %s does not exist", owner.Kind, field, id.Short()),
			Severity: SeverityError,
		}}
	}
	if target.Kind != want {
		return []ValidationError{{
			NodeID:   owner.ID,
			Message:  fmt.Sprintf("%s %s %q is %s, not %s", owner.Kind, field, g.NameOf(id), target.Kind, want),
			Severity: SeverityError,
		}}
	}
	return nil
}

// validateReferences checks that every NodeID referenced anywhere in the graph
// points to a node of the right kind.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, id := range g.Order {
		node := g.Nodes[id]

		for _, childID := range node.Children {
			errs = append(errs, refKind(g, node, "member", childID, NodeGear)...)
		}

		switch d := node.Data.(type) {
		case MeshData:
			errs = append(errs, refKind(g, node, "parent", d.Parent, NodeGear)...)
			errs = append(errs, refKind(g, node, "child", d.Child, NodeGear)...)
		case DriveData:
			errs = append(errs, refKind(g, node, "target", d.Target, NodeGear)...)
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share the
// same name) and that every entry in NameIndex points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for _, id := range g.Order {
		if node := g.Nodes[id]; node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateParents checks that no gear is meshed with itself and that every
// gear is the child of at most one mesh.
func validateParents(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	parentOf := make(map[NodeID]NodeID)

	for _, m := range g.Meshes() {
		d, ok := m.Data.(MeshData)
		if !ok {
			continue
		}
		if d.Parent == d.Child {
			errs = append(errs, ValidationError{
				NodeID:   m.ID,
				Message:  fmt.Sprintf("gear %q is meshed with itself", g.NameOf(d.Child)),
				Severity: SeverityError,
			})
			continue
		}
		if prev, ok := parentOf[d.Child]; ok {
			errs = append(errs, ValidationError{
				NodeID: m.ID,
				Message: fmt.Sprintf("gear %q is already the child of %q; a gear can have only one parent",
					g.NameOf(d.Child), g.NameOf(prev)),
				Severity: SeverityError,
			})
			continue
		}
		parentOf[d.Child] = d.Parent
	}

	return errs
}

// validateTree checks the mesh edges for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// If we encounter a gray node during traversal, we have found a cycle.
func validateTree(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	edges := make(map[NodeID][]NodeID)
	for _, m := range g.Meshes() {
		if d, ok := m.Data.(MeshData); ok && d.Parent != d.Child {
			edges[d.Parent] = append(edges[d.Parent], d.Child)
		}
	}

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("mesh cycle detected: gear %q drives itself", g.NameOf(id)),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		for _, child := range edges[id] {
			if visit(child) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range g.Gears() {
		if color[n.ID] == white {
			if visit(n.ID) {
				break
			}
		}
	}

	return errs
}

// validateDrives checks that every drive targets the root of a tree, that no
// gear is driven twice and that the speed is a finite number.
func validateDrives(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	driven := make(map[NodeID]bool)

	for _, dn := range g.Drives() {
		d, ok := dn.Data.(DriveData)
		if !ok {
			continue
		}
		if math.IsNaN(d.Speed) || math.IsInf(d.Speed, 0) {
			errs = append(errs, ValidationError{
				NodeID:   dn.ID,
				Message:  fmt.Sprintf("drive speed must be finite, got %g", d.Speed),
				Severity: SeverityError,
			})
		}
		if driven[d.Target] {
			errs = append(errs, ValidationError{
				NodeID:   dn.ID,
				Message:  fmt.Sprintf("gear %q is driven more than once", g.NameOf(d.Target)),
				Severity: SeverityError,
			})
		}
		driven[d.Target] = true

		if m := g.ParentMesh(d.Target); m != nil {
			parent := m.Data.(MeshData).Parent
			errs = append(errs, ValidationError{
				NodeID: dn.ID,
				Message: fmt.Sprintf("drive target %q is meshed as a child of %q; only the root of a train can be driven",
					g.NameOf(d.Target), g.NameOf(parent)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root is a train and warns about gears
// whose tree no train member belongs to. Those gears are left out of the
// scene.
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		n, ok := g.Nodes[rid]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if n.Kind != NodeGroup {
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("root %q is %s, not a train", g.NameOf(rid), n.Kind),
				Severity: SeverityError,
			})
		}
	}

	// Without any trains every gear stands on its own.
	if len(g.Trains()) == 0 {
		return errs
	}

	inScene := make(map[NodeID]bool)
	for _, r := range g.SceneRoots() {
		inScene[r.ID] = true
	}
	for _, n := range g.Gears() {
		if !inScene[g.TreeRoot(n.ID)] {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("gear %q is not part of any train (orphan) and is left out of the scene", g.NameOf(n.ID)),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}
