package engine

import (
	"strings"
	"testing"

	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/graph"
)

// evalOK evaluates source and fails the test on any error.
func evalOK(t *testing.T, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// evalFails evaluates source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// gear
// ---------------------------------------------------------------------------

func TestSimpleGear(t *testing.T) {
	g := evalOK(t, `
(gear "sun" :teeth 24 :pitch 8 :pressure-angle 14.5 :bore 0.25 :color "#cc3333")
`)
	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}

	sun := g.Lookup("sun")
	if sun == nil {
		t.Fatal("expected node named 'sun'")
	}
	if sun.Kind != graph.NodeGear {
		t.Errorf("expected NodeGear, got %s", sun.Kind)
	}
	if sun.ID != graph.NewNodeID("gear/sun") {
		t.Errorf("gear ID should be derived from its name")
	}

	gd, ok := sun.Data.(graph.GearData)
	if !ok {
		t.Fatalf("expected GearData, got %T", sun.Data)
	}
	if gd.Teeth != 24 {
		t.Errorf("teeth = %d, want 24", gd.Teeth)
	}
	if gd.DiametralPitch != 8 {
		t.Errorf("pitch = %f, want 8", gd.DiametralPitch)
	}
	if gd.PressureAngle != 14.5 {
		t.Errorf("pressure angle = %f, want 14.5", gd.PressureAngle)
	}
	if gd.Type != gear.External {
		t.Errorf("type = %s, want external", gd.Type)
	}
	if gd.Bore != 0.25 {
		t.Errorf("bore = %f, want 0.25", gd.Bore)
	}
	if gd.Color != "#cc3333" {
		t.Errorf("color = %q", gd.Color)
	}
}

func TestGearDefaults(t *testing.T) {
	g := evalOK(t, `
(gear "a" :teeth 20)
(gear-defaults :pitch 10 :pressure-angle 25)
(gear "b" :teeth 20)
(gear "ring" :teeth 60 :type :internal)
`)
	a := g.MustLookup("a").Data.(graph.GearData)
	if a.DiametralPitch != gear.DefaultDiametralPitch || a.PressureAngle != gear.DefaultPressureAngleDeg {
		t.Errorf("a should use built-in defaults, got %+v", a)
	}
	b := g.MustLookup("b").Data.(graph.GearData)
	if b.DiametralPitch != 10 || b.PressureAngle != 25 {
		t.Errorf("b should use gear-defaults, got %+v", b)
	}
	if ring := g.MustLookup("ring").Data.(graph.GearData); ring.Type != gear.Internal {
		t.Errorf("ring type = %s, want internal", ring.Type)
	}
}

func TestGearErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing name", `(gear :teeth 20)`, "requires a name"},
		{"missing teeth", `(gear "a")`, ":teeth is required"},
		{"fractional teeth", `(gear "a" :teeth 20.5)`, "whole number"},
		{"bad type", `(gear "a" :teeth 20 :type :bevel)`, "invalid gear type"},
		{"unknown keyword", `(gear "a" :teeth 20 :helix 30)`, "unknown keyword :helix"},
		{"duplicate", `(gear "a" :teeth 20) (gear "a" :teeth 30)`, `duplicate name "a"`},
		{"pitch not a number", `(gear "a" :teeth 20 :pitch "fine")`, "pitch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want containing %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// gear-ref, mesh, drive, train
// ---------------------------------------------------------------------------

func TestVariableReferenceAndMesh(t *testing.T) {
	g := evalOK(t, `
(def sun (gear "sun" :teeth 24))
(def planet (gear "planet" :teeth 12))
(mesh sun planet :angle 90)
`)
	meshes := g.Meshes()
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	md := meshes[0].Data.(graph.MeshData)
	if md.Parent != g.MustLookup("sun").ID || md.Child != g.MustLookup("planet").ID {
		t.Errorf("mesh endpoints wrong: %+v", md)
	}
	if md.Angle != 90 {
		t.Errorf("angle = %f, want 90", md.Angle)
	}
}

func TestGearRefAndNames(t *testing.T) {
	g := evalOK(t, `
(gear "sun" :teeth 24)
(gear "planet" :teeth 12)
(mesh (gear-ref "sun") "planet")
`)
	md := g.Meshes()[0].Data.(graph.MeshData)
	if md.Angle != 0 {
		t.Errorf("default angle = %f, want 0", md.Angle)
	}
	if md.Child != g.MustLookup("planet").ID {
		t.Error("string child reference not resolved")
	}
}

func TestMeshChaining(t *testing.T) {
	g := evalOK(t, `
(def sun (gear "sun" :teeth 24))
(mesh (mesh sun (gear "p" :teeth 12)) (gear "moon" :teeth 18) :angle 45)
`)
	if len(g.Meshes()) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(g.Meshes()))
	}
	second := g.Meshes()[1].Data.(graph.MeshData)
	if second.Parent != g.MustLookup("p").ID {
		t.Error("mesh should return its child so it can be chained")
	}
	if second.Angle != 45 {
		t.Errorf("angle = %f, want 45", second.Angle)
	}
}

func TestDriveAndTrain(t *testing.T) {
	g := evalOK(t, `
(def ring (gear "ring" :teeth 60 :type :internal))
(def planet (gear "planet" :teeth 20))
(mesh ring planet)
(drive ring :speed 1.5)
(train "planetary" ring)
`)
	drives := g.Drives()
	if len(drives) != 1 {
		t.Fatalf("expected 1 drive, got %d", len(drives))
	}
	dd := drives[0].Data.(graph.DriveData)
	if dd.Target != g.MustLookup("ring").ID || dd.Speed != 1.5 {
		t.Errorf("drive = %+v", dd)
	}

	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	tr := g.Get(g.Roots[0])
	if tr.Kind != graph.NodeGroup || tr.Name != "planetary" {
		t.Errorf("root = %s %q", tr.Kind, tr.Name)
	}
	if len(tr.Children) != 1 || tr.Children[0] != g.MustLookup("ring").ID {
		t.Errorf("train members = %v", tr.Children)
	}
}

func TestDriveDefaultSpeed(t *testing.T) {
	g, evalErrs, err := NewEngine(WithDriveSpeed(3)).Evaluate(`(drive (gear "a" :teeth 20))`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", err, evalErrs)
	}
	if s := g.Drives()[0].Data.(graph.DriveData).Speed; s != 3 {
		t.Errorf("speed = %f, want engine default 3", s)
	}

	g = evalOK(t, `(gear-defaults :speed 2) (drive (gear "a" :teeth 20))`)
	if s := g.Drives()[0].Data.(graph.DriveData).Speed; s != 2 {
		t.Errorf("speed = %f, want gear-defaults 2", s)
	}
}

func TestTrainWithList(t *testing.T) {
	g := evalOK(t, `
(gear "a" :teeth 20)
(gear "b" :teeth 20)
(train "pair" (list (gear-ref "a") (gear-ref "b")))
`)
	if n := len(g.MustLookup("pair").Children); n != 2 {
		t.Errorf("expected 2 members, got %d", n)
	}
}

func TestReferenceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown gear-ref", `(gear-ref "nope")`, `no gear named "nope"`},
		{"unknown mesh name", `(gear "a" :teeth 20) (mesh "a" "nope")`, `no gear named "nope"`},
		{"mesh arity", `(gear "a" :teeth 20) (mesh "a")`, "requires a parent and a child"},
		{"mesh number", `(gear "a" :teeth 20) (mesh "a" 5)`, "expected gear reference"},
		{"drive train", `(gear "a" :teeth 20) (drive (train "t" "a"))`, "is not a gear"},
		{"drive twice", `(gear "a" :teeth 20) (drive "a") (drive "a")`, "already driven"},
		{"train duplicate", `(gear "a" :teeth 20) (train "a")`, `duplicate name "a"`},
		{"mesh keyword", `(gear "a" :teeth 20) (gear "b" :teeth 20) (mesh "a" "b" :at 3)`, "unknown keyword :at"},
		{"mesh pair twice", `(gear "a" :teeth 20) (gear "b" :teeth 20) (mesh "a" "b" :angle 0) (mesh "a" "b" :angle 90)`, `gear "b" is already attached to "a"`},
		{"mesh second parent", `(gear "a" :teeth 20) (gear "b" :teeth 20) (gear "c" :teeth 10) (mesh "a" "c") (mesh "b" "c")`, `gear "c" is already attached to "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want containing %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Full scene
// ---------------------------------------------------------------------------

func TestFullPlanetaryExample(t *testing.T) {
	source := `
;; A ring with three planets around a sun.
(gear-defaults :pitch 4 :pressure-angle 20)

(def ring (gear "ring" :teeth 72 :type :internal :color "#888888"))
(def sun (gear "sun" :teeth 24))

(defn planet [label deg]
  (mesh ring (gear label :teeth 24) :angle deg))

(planet "p1" 0)
(planet "p2" 120)
(planet "p3" 240)

(drive ring :speed 0.5)
(train "planetary" ring sun)
`
	g := evalOK(t, source)
	if n := len(g.Gears()); n != 5 {
		t.Fatalf("expected 5 gears, got %d", n)
	}
	if n := len(g.Meshes()); n != 3 {
		t.Fatalf("expected 3 meshes, got %d", n)
	}
	angles := []float64{0, 120, 240}
	for i, m := range g.Meshes() {
		if a := m.Data.(graph.MeshData).Angle; a != angles[i] {
			t.Errorf("mesh %d angle = %f, want %f", i, a, angles[i])
		}
	}

	res := graph.ValidateAll(g)
	if !res.OK() {
		t.Fatalf("scene should validate: %v", res.Errors)
	}
	// The sun has no drive and no mesh, so it is reported as undriven.
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, `"sun" is not driven`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected undriven warning for sun, got %v", res.Warnings)
	}
}

func TestCheckReportsValidation(t *testing.T) {
	res, err := NewEngine().Check(`
(def a (gear "a" :teeth 3))
(def b (gear "b" :teeth 20))
(mesh a b)
`)
	if err != nil {
		t.Fatalf("fatal: %v", err)
	}
	if res.Graph == nil {
		t.Fatal("graph should be returned when the source itself evaluated")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, "at least 5 teeth") {
		t.Errorf("expected teeth error, got %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected an undriven warning")
	}
}

func TestCheckPassesEvalErrors(t *testing.T) {
	res, err := NewEngine().Check(`(gear "a"`)
	if err != nil {
		t.Fatalf("fatal: %v", err)
	}
	if res.Graph != nil || len(res.Errors) == 0 {
		t.Errorf("expected eval errors and no graph, got %+v", res)
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	g := evalOK(t, `
(def base 12)
(gear "a" :teeth (* base 2))
`)
	if teeth := g.MustLookup("a").Data.(graph.GearData).Teeth; teeth != 24 {
		t.Errorf("teeth = %d, want 24", teeth)
	}
}
