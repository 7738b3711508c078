package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/gogpu/gg"
)

// Default drawing settings.
const (
	DefaultColor      = "#3366cc"
	DefaultBackground = "#ffffff"
	DefaultMargin     = 0.05 // fraction of the frame left empty on each side
	DefaultLineWidth  = 1.5
)

// PNGRenderer rasterizes frames with gg. Every frame is scaled so all of
// its shapes fit, with world y pointing up.
type PNGRenderer struct {
	Width, Height int
	Mode          Mode
	Background    string
	LineWidth     float64

	dc *gg.Context
}

// NewPNGRenderer returns a renderer for width x height frames.
func NewPNGRenderer(width, height int, mode Mode) *PNGRenderer {
	return &PNGRenderer{
		Width:      width,
		Height:     height,
		Mode:       mode,
		Background: DefaultBackground,
		LineWidth:  DefaultLineWidth,
	}
}

// Render draws shapes into the renderer's canvas, replacing the previous
// frame.
func (r *PNGRenderer) Render(shapes []Shape) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("render: invalid frame size %dx%d", r.Width, r.Height)
	}
	if r.dc == nil || r.dc.Width() != r.Width || r.dc.Height() != r.Height {
		if r.dc != nil {
			_ = r.dc.Close()
		}
		r.dc = gg.NewContext(r.Width, r.Height)
	}
	dc := r.dc
	dc.ClearWithColor(gg.Hex(r.Background))

	lo, hi, ok := Bounds(shapes)
	if !ok {
		return nil
	}
	tf := fit(lo, hi, float64(r.Width), float64(r.Height))

	dc.SetLineWidth(r.LineWidth)
	if r.Mode == ModeFilled {
		dc.SetFillRule(gg.FillRuleEvenOdd)
	}
	for _, s := range shapes {
		col := s.Color
		if col == "" {
			col = DefaultColor
		}
		dc.SetHexColor(col)

		tracePolygon(dc, tf, s.Outer)
		tracePolygon(dc, tf, s.Inner)
		var err error
		if r.Mode == ModeFilled {
			err = dc.Fill()
		} else {
			err = dc.Stroke()
		}
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

// SavePNG writes the last rendered frame to path.
func (r *PNGRenderer) SavePNG(path string) error {
	if r.dc == nil {
		return fmt.Errorf("render: nothing rendered")
	}
	return r.dc.SavePNG(path)
}

// EncodePNG writes the last rendered frame to w.
func (r *PNGRenderer) EncodePNG(w io.Writer) error {
	if r.dc == nil {
		return fmt.Errorf("render: nothing rendered")
	}
	return r.dc.EncodePNG(w)
}

// Close releases the canvas.
func (r *PNGRenderer) Close() error {
	if r.dc == nil {
		return nil
	}
	err := r.dc.Close()
	r.dc = nil
	return err
}

// Sequence renders every frame to a numbered PNG file in Dir.
type Sequence struct {
	*PNGRenderer
	Dir    string
	Prefix string

	n int
}

// NewSequence creates dir if needed and returns a renderer writing
// <prefix>0000.png, <prefix>0001.png and so on into it.
func NewSequence(dir, prefix string, width, height int, mode Mode) (*Sequence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &Sequence{
		PNGRenderer: NewPNGRenderer(width, height, mode),
		Dir:         dir,
		Prefix:      prefix,
	}, nil
}

// Render draws shapes and saves them as the next file in the sequence.
func (s *Sequence) Render(shapes []Shape) error {
	if err := s.PNGRenderer.Render(shapes); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%s%04d.png", s.Prefix, s.n))
	if err := s.SavePNG(path); err != nil {
		return fmt.Errorf("render: %s: %w", path, err)
	}
	s.n++
	return nil
}

// Written returns how many files have been saved.
func (s *Sequence) Written() int { return s.n }

// transform maps world coordinates into pixels.
type transform struct {
	scale  float64
	ox, oy float64 // pixel position of world origin
}

func (t transform) apply(p v2.Vec) (float64, float64) {
	return t.ox + p.X*t.scale, t.oy - p.Y*t.scale
}

// fit centers the box lo..hi in a w x h frame.
func fit(lo, hi v2.Vec, w, h float64) transform {
	bw, bh := hi.X-lo.X, hi.Y-lo.Y
	usable := 1 - 2*DefaultMargin
	scale := math.Inf(1)
	if bw > 0 {
		scale = w * usable / bw
	}
	if bh > 0 {
		scale = math.Min(scale, h*usable/bh)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	cx, cy := (lo.X+hi.X)/2, (lo.Y+hi.Y)/2
	return transform{
		scale: scale,
		ox:    w/2 - cx*scale,
		oy:    h/2 + cy*scale,
	}
}

func tracePolygon(dc *gg.Context, tf transform, poly []v2.Vec) {
	if len(poly) < 2 {
		return
	}
	dc.NewSubPath()
	x, y := tf.apply(poly[0])
	dc.MoveTo(x, y)
	for _, p := range poly[1:] {
		x, y = tf.apply(p)
		dc.LineTo(x, y)
	}
	dc.ClosePath()
}
