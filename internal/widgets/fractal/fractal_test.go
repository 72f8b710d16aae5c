package fractal

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeSegmentCount(t *testing.T) {
	for depth := MinDepth; depth <= MaxDepth; depth++ {
		segs := Tree(Params{Angle: 20, Depth: depth})
		assert.Len(t, segs, (1<<(depth+1))-1, "depth %d", depth)
	}
}

func TestTreeTrunk(t *testing.T) {
	segs := Tree(Params{Angle: 30, Depth: 3})
	trunk := segs[0]
	assert.Equal(t, Segment{X1: 300, Y1: 500, X2: 300, Y2: 380, Width: 10, Level: 3}, trunk)
}

func TestTreeScaling(t *testing.T) {
	segs := Tree(Params{Angle: 45, Depth: 2})
	// Depth-first: trunk, left, left-left, left-right, right, ...
	left := segs[1]
	assert.InDelta(t, 7.0, left.Width, 1e-9)
	assert.InDelta(t, 90.0, math.Hypot(left.X2-left.X1, left.Y2-left.Y1), 1e-9)
	assert.Equal(t, 1, left.Level)

	leaf := segs[2]
	assert.InDelta(t, 4.9, leaf.Width, 1e-9)
	assert.InDelta(t, 67.5, math.Hypot(leaf.X2-leaf.X1, leaf.Y2-leaf.Y1), 1e-9)
	assert.Equal(t, 0, leaf.Level)

	// Headings accumulate: left-left points at -90 degrees, straight left.
	assert.InDelta(t, leaf.Y1, leaf.Y2, 1e-9)
	assert.Less(t, leaf.X2, leaf.X1)
}

func TestTreeSymmetry(t *testing.T) {
	segs := Tree(Params{Angle: 25, Depth: 4})
	half := (len(segs) - 1) / 2
	left, right := segs[1:1+half], segs[1+half:]
	require.Len(t, right, half)

	key := func(x, y float64) string { return fmt.Sprintf("%.4f,%.4f", x, y) }
	mirrored := make(map[string]int, half)
	for _, s := range left {
		mirrored[key(Width-s.X2, s.Y2)]++
	}
	for _, s := range right {
		k := key(s.X2, s.Y2)
		assert.Positive(t, mirrored[k], "no mirror for %s", k)
		mirrored[k]--
	}
}

func TestZeroAngleIsAPole(t *testing.T) {
	for _, s := range Tree(Params{Angle: 0, Depth: 5}) {
		assert.InDelta(t, Width/2, s.X2, 1e-9)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want Params
	}{
		{Params{Angle: -10, Depth: 0}, Params{Angle: 0, Depth: 1}},
		{Params{Angle: 120, Depth: 40}, Params{Angle: 90, Depth: 12}},
		{Params{Angle: 20, Depth: 9}, Params{Angle: 20, Depth: 9}},
		{Params{Angle: math.NaN(), Depth: 3}, Params{Angle: DefaultAngle, Depth: 3}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Clamp())
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "hsl(30, 70%, 70%)", Segment{Level: 10}.Color())
	assert.Equal(t, "hsl(130, 70%, 20%)", Segment{Level: 0}.Color())
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, Params{Angle: 20, Depth: 3}))

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 15, strings.Count(svg, "<line "))
	assert.Contains(t, svg, "depth 3")
}
