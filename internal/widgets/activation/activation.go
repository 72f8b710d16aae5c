// Package activation evaluates and plots the activation-function playground.
package activation

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Kind names an activation function.
type Kind string

// Supported kinds.
const (
	Sigmoid Kind = "sigmoid"
	ReLU    Kind = "relu"
	Tanh    Kind = "tanh"
)

// Kinds lists the supported kinds in display order.
var Kinds = []Kind{Sigmoid, ReLU, Tanh}

// Sampling domain.
const (
	MinX = -6.0
	MaxX = 6.0
	Step = 0.5
)

// Point is one sample of a curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case Sigmoid, ReLU, Tanh:
		return true
	}
	return false
}

// Eval returns k(x). Unknown kinds evaluate to 0.
func Eval(k Kind, x float64) float64 {
	switch k {
	case Sigmoid:
		return 1 / (1 + math.Exp(-x))
	case ReLU:
		return math.Max(0, x)
	case Tanh:
		return math.Tanh(x)
	}
	return 0
}

// Sample returns k over [MinX, MaxX] at Step intervals, with y rounded to
// three decimals.
func Sample(k Kind) []Point {
	n := int((MaxX-MinX)/Step) + 1
	pts := make([]Point, 0, n)
	for i := range n {
		x := MinX + float64(i)*Step
		pts = append(pts, Point{X: x, Y: Round(Eval(k, x), 3)})
	}
	return pts
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ClampX forces x into the sampling domain. NaN becomes 0.
func ClampX(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(MinX, math.Min(MaxX, x))
}

// Plot geometry.
const (
	PlotWidth  = 480
	PlotHeight = 256
	plotPad    = 24
)

// WriteSVG draws the curve for k with a marker at x.
func WriteSVG(w io.Writer, k Kind, x float64) error {
	x = ClampX(x)
	pts := Sample(k)

	lo, hi := 0.0, 1.0
	for _, p := range pts {
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	sx := func(v float64) float64 {
		return plotPad + (v-MinX)/(MaxX-MinX)*(PlotWidth-2*plotPad)
	}
	sy := func(v float64) float64 {
		return PlotHeight - plotPad - (v-lo)/(hi-lo)*(PlotHeight-2*plotPad)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`, PlotWidth, PlotHeight, PlotWidth, PlotHeight)
	fmt.Fprintf(&b, `<title>%s(%g) = %.4f</title>`, k, x, Eval(k, x))
	b.WriteString(`<rect width="100%" height="100%" fill="#fff"/>`)
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#e5e7eb" stroke-dasharray="3 3"/>`,
		sx(MinX), sy(0), sx(MaxX), sy(0))
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#e5e7eb" stroke-dasharray="3 3"/>`,
		sx(0), sy(lo), sx(0), sy(hi))

	b.WriteString(`<polyline fill="none" stroke="#2563eb" stroke-width="3" points="`)
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", sx(p.X), sy(p.Y))
	}
	b.WriteString(`"/>`)
	fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="6" fill="#ef4444"/>`, sx(x), sy(Eval(k, x)))
	b.WriteString(`</svg>`)

	_, err := io.WriteString(w, b.String())
	return err
}
