package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	Panel    lipgloss.Style
	Header   lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Truth    lipgloss.Style
	Forecast lipgloss.Style
	Running  lipgloss.Style
	Paused   lipgloss.Style
	Invalid  lipgloss.Style
	KeyHint  lipgloss.Style

	sparkHigh, sparkMid, sparkLow lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:    lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Truth:    lipgloss.NewStyle().Foreground(t.Truth),
		Forecast: lipgloss.NewStyle().Foreground(t.Forecast),
		Running:  lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Invalid:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		KeyHint:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),

		sparkHigh: lipgloss.NewStyle().Foreground(t.Error),
		sparkMid:  lipgloss.NewStyle().Foreground(t.Warning),
		sparkLow:  lipgloss.NewStyle().Foreground(t.Success),
	}
}

// ProgressBar renders a bar filled to percent of width.
func (s styles) ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))
	return s.Value.Render(strings.Repeat("█", filled)) + s.Label.UnsetWidth().Render(strings.Repeat("░", width-filled))
}

// Sparkline renders the last width values. High values, which mean large
// errors here, are drawn in the error color.
func (s styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	values = finite(values)
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(s.sparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(s.sparkMid.Render(c))
		default:
			result.WriteString(s.sparkLow.Render(c))
		}
	}
	return result.String()
}
