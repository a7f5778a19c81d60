package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/esnlab/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D is the projection of a trajectory onto two components.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Glyph          rune
	Points         []Point
}

// NewPhasePortrait projects tr onto components xIdx and yIdx. Non-finite
// states are dropped. It returns nil for out-of-range indices.
func NewPhasePortrait(tr *dynamo.Trajectory, xIdx, yIdx int, glyph rune) *PhasePortrait2D {
	if tr.Len() == 0 || xIdx < 0 || yIdx < 0 || xIdx >= tr.Dim() || yIdx >= tr.Dim() {
		return nil
	}
	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Glyph:  glyph,
		Points: make([]Point, 0, tr.Len()),
	}
	for _, s := range tr.States {
		if !s.IsValid() {
			continue
		}
		portrait.Points = append(portrait.Points, Point{X: s[xIdx], Y: s[yIdx]})
	}
	return portrait
}

// PhasePortraitToASCII draws the portraits on one canvas sharing bounds.
// Later portraits are drawn over earlier ones.
func PhasePortraitToASCII(width, height int, portraits ...*PhasePortrait2D) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range portraits {
		if p == nil {
			continue
		}
		for _, pt := range p.Points {
			minX = math.Min(minX, pt.X)
			maxX = math.Max(maxX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portraits {
		if p == nil {
			continue
		}
		glyph := p.Glyph
		if glyph == 0 {
			glyph = '•'
		}
		for _, pt := range p.Points {
			col := int((pt.X - minX) / rangeX * float64(width-1))
			row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
			if row >= 0 && row < height && col >= 0 && col < width {
				canvas[row][col] = glyph
			}
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records (recordX, recordY) wherever component crossIdx
// crosses threshold upwards, linearly interpolated between the bracketing
// states. The Lorenz section z = rho-1 is the usual choice.
func PoincareSection(tr *dynamo.Trajectory, crossIdx int, threshold float64, recordX, recordY int, glyph rune) *PhasePortrait2D {
	dim := tr.Dim()
	if tr.Len() < 2 || crossIdx >= dim || recordX >= dim || recordY >= dim {
		return nil
	}
	section := &PhasePortrait2D{XIndex: recordX, YIndex: recordY, Glyph: glyph}

	for i := 1; i < tr.Len(); i++ {
		prev, curr := tr.States[i-1], tr.States[i]
		if prev[crossIdx] < threshold && curr[crossIdx] >= threshold {
			frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			section.Points = append(section.Points, Point{
				X: prev[recordX] + frac*(curr[recordX]-prev[recordX]),
				Y: prev[recordY] + frac*(curr[recordY]-prev[recordY]),
			})
		}
	}
	return section
}
