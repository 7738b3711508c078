package graph

import (
	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/geom"
)

// ---------------------------------------------------------------------------
// Gear
// ---------------------------------------------------------------------------

// GearData describes one gear as written in the scene source. Angles are
// in degrees.
type GearData struct {
	Teeth          int       `json:"teeth"`
	DiametralPitch float64   `json:"diametral_pitch"`
	PressureAngle  float64   `json:"pressure_angle"`
	Type           gear.Type `json:"type"`
	Bore           float64   `json:"bore,omitempty"` // 0 = gear.DefaultBoundary
	Color          string    `json:"color,omitempty"`
	// X and Y place a tree root. Meshed gears are placed by their parent.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
}

func (GearData) nodeData() {}

// Params converts d into synthesizer parameters.
func (d GearData) Params() gear.Params {
	p := gear.Params{
		Teeth:          d.Teeth,
		DiametralPitch: d.DiametralPitch,
		PressureAngle:  geom.Radians(d.PressureAngle),
		Type:           d.Type,
		Boundary:       d.Bore,
	}
	if p.Boundary == 0 && p.DiametralPitch > 0 {
		p.Boundary = gear.DefaultBoundary(p.Teeth, p.DiametralPitch, p.Type)
	}
	return p
}

// PitchRadius is half of teeth / diametral pitch.
func (d GearData) PitchRadius() float64 {
	return d.Params().PitchRadius()
}

// ---------------------------------------------------------------------------
// Mesh
// ---------------------------------------------------------------------------

// MeshData attaches Child to Parent at Angle degrees from the parent's
// center. Created by the (mesh ...) form.
type MeshData struct {
	Parent NodeID  `json:"parent"`
	Child  NodeID  `json:"child"`
	Angle  float64 `json:"angle"`
}

func (MeshData) nodeData() {}

// ---------------------------------------------------------------------------
// Drive
// ---------------------------------------------------------------------------

// DriveData turns Target at Speed radians per second. Created by the
// (drive ...) form.
type DriveData struct {
	Target NodeID  `json:"target"`
	Speed  float64 `json:"speed"`
}

func (DriveData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a named train. Created by the (train ...) form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
