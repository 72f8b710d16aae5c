// Package fractal draws the binary fractal tree widget. Drawing is a pure
// function of the branch angle and recursion depth; every parameter change
// is a full redraw.
package fractal

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Parameter bounds and defaults.
const (
	MinAngle     = 0
	MaxAngle     = 90
	DefaultAngle = 20

	MinDepth     = 1
	MaxDepth     = 12
	DefaultDepth = 9
)

// Canvas and growth constants.
const (
	Width  = 600
	Height = 500

	TrunkLength = 120.0
	TrunkWidth  = 10.0

	LengthRatio = 0.75
	WidthRatio  = 0.7
)

// Params selects one tree.
type Params struct {
	Angle float64 // degrees between a branch and each child
	Depth int     // recursion levels below the trunk
}

// Clamp returns p with both parameters forced into range.
func (p Params) Clamp() Params {
	p.Angle = math.Max(MinAngle, math.Min(MaxAngle, p.Angle))
	if math.IsNaN(p.Angle) {
		p.Angle = DefaultAngle
	}
	p.Depth = max(MinDepth, min(MaxDepth, p.Depth))
	return p
}

// Segment is one drawn branch.
type Segment struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	// Level is the remaining depth when the branch was drawn; the trunk has
	// Level == Params.Depth and leaves have Level == 0.
	Level int
}

// Color returns the branch stroke color, shading from brown at the trunk
// toward green at the leaves.
func (s Segment) Color() string {
	hue := 30 + (10-s.Level)*10
	light := s.Level*5 + 20
	return fmt.Sprintf("hsl(%d, 70%%, %d%%)", hue, light)
}

// Tree returns every segment of the tree for p, trunk first, in depth-first
// order with the left child before the right. Parameters are clamped.
func Tree(p Params) []Segment {
	p = p.Clamp()
	segs := make([]Segment, 0, (1<<(p.Depth+1))-1)
	var grow func(x, y, length, heading, width float64, level int)
	grow = func(x, y, length, heading, width float64, level int) {
		rad := heading * math.Pi / 180
		x2 := x + length*math.Sin(rad)
		y2 := y - length*math.Cos(rad)
		segs = append(segs, Segment{X1: x, Y1: y, X2: x2, Y2: y2, Width: width, Level: level})
		if level <= 0 {
			return
		}
		grow(x2, y2, length*LengthRatio, heading-p.Angle, width*WidthRatio, level-1)
		grow(x2, y2, length*LengthRatio, heading+p.Angle, width*WidthRatio, level-1)
	}
	grow(Width/2, Height, TrunkLength, 0, TrunkWidth, p.Depth)
	return segs
}

// WriteSVG draws the tree for p as a standalone SVG document.
func WriteSVG(w io.Writer, p Params) error {
	p = p.Clamp()
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`, Width, Height, Width, Height)
	fmt.Fprintf(&b, `<title>Fractal tree, angle %g°, depth %d</title>`, p.Angle, p.Depth)
	b.WriteString(`<rect width="100%" height="100%" fill="#fff"/>`)
	b.WriteString(`<g stroke-linecap="round">`)
	for _, s := range Tree(p) {
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.3f"/>`,
			s.X1, s.Y1, s.X2, s.Y2, s.Color(), s.Width)
	}
	b.WriteString(`</g></svg>`)
	_, err := io.WriteString(w, b.String())
	return err
}
