package graph

import (
	"strings"
	"testing"

	"github.com/chazu/gearsim/pkg/gear"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidTrain creates a driven sun with two planets inside a ring,
// grouped into one train.
func buildValidTrain() *DesignGraph {
	g := New()

	g.AddNode(gearNode("ring", 60, gear.Internal))
	g.AddNode(gearNode("planet", 20, gear.External))
	g.AddNode(gearNode("idler", 12, gear.External))
	g.AddNode(meshNode("ring", "planet", 0))
	g.AddNode(meshNode("planet", "idler", 180))
	g.AddNode(driveNode("ring", 0.5))

	trainID := NewNodeID("train/box")
	g.AddNode(&Node{
		ID:       trainID,
		Kind:     NodeGroup,
		Name:     "box",
		Children: []NodeID{NewNodeID("gear/ring")},
		Data:     GroupData{},
	})
	g.AddRoot(trainID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// errorCount returns the number of error-severity findings.
func errorCount(errs []ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Tier 1
// ---------------------------------------------------------------------------

func TestValidateValidTrain(t *testing.T) {
	errs := Validate(buildValidTrain())
	if len(errs) != 0 {
		t.Fatalf("expected no findings, got %v", errs)
	}
}

func TestValidateEmptyGraph(t *testing.T) {
	if errs := Validate(New()); len(errs) != 0 {
		t.Fatalf("expected no findings on empty graph, got %v", errs)
	}
}

func TestValidateDanglingMeshReference(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	g.AddNode(meshNode("a", "ghost", 0))

	errs := Validate(g)
	if !hasError(errs, "child reference") {
		t.Errorf("expected dangling child error, got %v", errs)
	}
}

func TestValidateMeshReferenceWrongKind(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	g.AddNode(gearNode("b", 20, gear.External))
	g.AddNode(driveNode("a", 1))
	g.AddNode(&Node{
		ID:   NewNodeID("mesh/bad"),
		Kind: NodeMesh,
		Data: MeshData{Parent: NewNodeID("drive/a"), Child: NewNodeID("gear/b")},
	})

	errs := Validate(g)
	if !hasError(errs, "is drive, not gear") {
		t.Errorf("expected wrong-kind error, got %v", errs)
	}
}

func TestValidateDanglingDriveAndMember(t *testing.T) {
	g := New()
	g.AddNode(driveNode("ghost", 1))
	trainID := NewNodeID("train/t")
	g.AddNode(&Node{ID: trainID, Kind: NodeGroup, Name: "t",
		Children: []NodeID{NewNodeID("gear/nobody")}, Data: GroupData{}})
	g.AddRoot(trainID)

	errs := Validate(g)
	if !hasError(errs, "target reference") {
		t.Errorf("expected dangling drive target, got %v", errs)
	}
	if !hasError(errs, "member reference") {
		t.Errorf("expected dangling train member, got %v", errs)
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	g := New()
	a := gearNode("a", 20, gear.External)
	b := gearNode("b", 20, gear.External)
	b.Name = "a"
	g.AddNode(a)
	g.AddNode(b)

	if errs := Validate(g); !hasError(errs, `duplicate name "a"`) {
		t.Errorf("expected duplicate name error, got %v", errs)
	}
}

func TestValidateNameIndexDangling(t *testing.T) {
	g := New()
	g.NameIndex["ghost"] = NewNodeID("gear/ghost")
	if errs := Validate(g); !hasError(errs, "non-existent node") {
		t.Errorf("expected name index error, got %v", errs)
	}
}

func TestValidateSelfMesh(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	g.AddNode(meshNode("a", "a", 0))

	if errs := Validate(g); !hasError(errs, "meshed with itself") {
		t.Errorf("expected self-mesh error, got %v", errs)
	}
}

func TestValidateTwoParents(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	g.AddNode(gearNode("b", 20, gear.External))
	g.AddNode(gearNode("c", 10, gear.External))
	g.AddNode(meshNode("a", "c", 0))
	g.AddNode(meshNode("b", "c", 0))

	errs := Validate(g)
	if !hasError(errs, "only one parent") {
		t.Errorf("expected two-parent error, got %v", errs)
	}
}

func TestValidateCycle(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	g.AddNode(gearNode("b", 20, gear.External))
	g.AddNode(gearNode("c", 20, gear.External))
	g.AddNode(meshNode("a", "b", 0))
	g.AddNode(meshNode("b", "c", 0))
	g.AddNode(meshNode("c", "a", 0))

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Errorf("expected cycle error, got %v", errs)
	}
	n := 0
	for _, e := range errs {
		if strings.Contains(e.Message, "cycle") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("expected exactly one cycle error, got %d", n)
	}
}

func TestValidateDriveOnChild(t *testing.T) {
	g := buildValidTrain()
	g.AddNode(driveNode("planet", 1))

	if errs := Validate(g); !hasError(errs, "only the root of a train can be driven") {
		t.Errorf("expected drive-on-child error, got %v", errs)
	}
}

func TestValidateDrivenTwice(t *testing.T) {
	g := buildValidTrain()
	g.AddNode(&Node{
		ID:   NewNodeID("drive/ring/again"),
		Kind: NodeDrive,
		Data: DriveData{Target: NewNodeID("gear/ring"), Speed: 2},
	})

	if errs := Validate(g); !hasError(errs, "driven more than once") {
		t.Errorf("expected double drive error, got %v", errs)
	}
}

func TestValidateNonFiniteSpeed(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	n := driveNode("a", 0)
	d := n.Data.(DriveData)
	d.Speed = posInf()
	n.Data = d
	g.AddNode(n)

	if errs := Validate(g); !hasError(errs, "must be finite") {
		t.Errorf("expected speed error, got %v", errs)
	}
}

func TestValidateRootMustBeTrain(t *testing.T) {
	g := New()
	a := gearNode("a", 20, gear.External)
	g.AddNode(a)
	g.AddRoot(a.ID)
	g.AddRoot(NewNodeID("train/ghost"))

	errs := Validate(g)
	if !hasError(errs, "not a train") {
		t.Errorf("expected root kind error, got %v", errs)
	}
	if !hasError(errs, "root reference") {
		t.Errorf("expected dangling root error, got %v", errs)
	}
}

func TestValidateOrphanWarning(t *testing.T) {
	g := buildValidTrain()
	g.AddNode(gearNode("spare", 30, gear.External))

	errs := Validate(g)
	if errorCount(errs) != 0 {
		t.Fatalf("orphan should not be an error: %v", errs)
	}
	if !hasWarning(errs, `"spare" is not part of any train (orphan) and is left out of the scene`) {
		t.Errorf("expected orphan warning, got %v", errs)
	}
	if hasWarning(errs, `"idler"`) {
		t.Errorf("idler is reachable through meshes and should not warn: %v", errs)
	}
}

func TestValidateNoTrainsNoOrphans(t *testing.T) {
	g := New()
	g.AddNode(gearNode("a", 20, gear.External))
	if errs := Validate(g); len(errs) != 0 {
		t.Errorf("gears without trains should not warn, got %v", errs)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Message: "bad", Severity: SeverityError}
	if e.Error() != "[error] bad" {
		t.Errorf("Error() = %q", e.Error())
	}
	id := NewNodeID("gear/x")
	e = ValidationError{NodeID: id, Message: "meh", Severity: SeverityWarning}
	if !strings.Contains(e.Error(), id.Short()) || !strings.HasPrefix(e.Error(), "[warning]") {
		t.Errorf("Error() = %q", e.Error())
	}
	if ValidationSeverity(9).String() != "ValidationSeverity(9)" {
		t.Errorf("unknown severity string = %q", ValidationSeverity(9).String())
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	g := buildValidTrain()
	before := len(g.Order)
	Validate(g)
	ValidateAll(g)
	if len(g.Order) != before || g.NodeCount() != before {
		t.Error("validation mutated the graph")
	}
}
