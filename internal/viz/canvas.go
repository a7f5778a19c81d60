package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = []rune(strings.Repeat(string(rune(brailleBlank)), w))
	}
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Projector maps a 3D state onto the canvas: it rotates (x, y) about the
// vertical z axis by Angle and scales the result into Bounds.
type Projector struct {
	Angle  float64
	Bounds [3][2]float64 // min/max per component
}

// NewProjector fits the projection to the given states.
func NewProjector(states ...[]float64) Projector {
	p := Projector{Bounds: [3][2]float64{
		{math.Inf(1), math.Inf(-1)},
		{math.Inf(1), math.Inf(-1)},
		{math.Inf(1), math.Inf(-1)},
	}}
	for _, s := range states {
		if len(s) < 3 {
			continue
		}
		for k := 0; k < 3; k++ {
			if math.IsNaN(s[k]) || math.IsInf(s[k], 0) {
				continue
			}
			p.Bounds[k][0] = math.Min(p.Bounds[k][0], s[k])
			p.Bounds[k][1] = math.Max(p.Bounds[k][1], s[k])
		}
	}
	for k := range p.Bounds {
		if math.IsInf(p.Bounds[k][0], 1) {
			p.Bounds[k] = [2]float64{-1, 1}
		}
		if p.Bounds[k][0] == p.Bounds[k][1] {
			p.Bounds[k][0]--
			p.Bounds[k][1]++
		}
	}
	return p
}

// Project returns sub-pixel coordinates on c, or ok=false for non-finite
// states.
func (p Projector) Project(c *Canvas, s []float64) (x, y int, ok bool) {
	if len(s) < 3 {
		return 0, 0, false
	}
	// centre and normalise the horizontal plane to [-1, 1]
	cx := (p.Bounds[0][0] + p.Bounds[0][1]) / 2
	cy := (p.Bounds[1][0] + p.Bounds[1][1]) / 2
	r := math.Hypot(p.Bounds[0][1]-cx, p.Bounds[1][1]-cy)
	u := ((s[0]-cx)*math.Cos(p.Angle) - (s[1]-cy)*math.Sin(p.Angle)) / r
	v := (s[2] - p.Bounds[2][0]) / (p.Bounds[2][1] - p.Bounds[2][0])
	if math.IsNaN(u) || math.IsNaN(v) || math.IsInf(u, 0) || math.IsInf(v, 0) {
		return 0, 0, false
	}

	w, h := c.Width*2, c.Height*4
	x = int((u + 1) / 2 * float64(w-1))
	y = h - 1 - int(v*float64(h-1))
	return x, y, true
}

// DrawTrail projects consecutive states and joins them with lines.
func (p Projector) DrawTrail(c *Canvas, states [][]float64) {
	px, py, prevOK := 0, 0, false
	for _, s := range states {
		x, y, ok := p.Project(c, s)
		if ok && prevOK {
			c.DrawLine(px, py, x, y)
		} else if ok {
			c.Set(x, y)
		}
		px, py, prevOK = x, y, ok
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
