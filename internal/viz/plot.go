package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

var componentNames = []string{"x", "y", "z"}

// PlotOptions sizes the asciigraph charts. Zero values pick defaults.
type PlotOptions struct {
	Width, Height int
	// Window limits how many forecast steps are plotted; 0 plots all.
	Window int
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Width <= 0 {
		o.Width = 70
	}
	if o.Height <= 0 {
		o.Height = 10
	}
	return o
}

// PlotComparison draws one chart per component with the truth in green and
// the forecast in red.
func PlotComparison(truth, forecast [][]float64, opts PlotOptions) string {
	opts = opts.withDefaults()
	n := min(len(truth), len(forecast))
	if opts.Window > 0 {
		n = min(n, opts.Window)
	}
	if n < 2 {
		return "not enough points to plot\n"
	}
	dim := len(truth[0])

	var b strings.Builder
	for k := 0; k < dim; k++ {
		name := fmt.Sprintf("c%d", k)
		if k < len(componentNames) && dim == 3 {
			name = componentNames[k]
		}
		t := column(truth[:n], k)
		f := finite(column(forecast[:n], k))
		chart := asciigraph.PlotMany([][]float64{t, f},
			asciigraph.Height(opts.Height),
			asciigraph.Width(opts.Width),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
			asciigraph.Caption(fmt.Sprintf("%s: truth (green) vs forecast (red)", name)),
		)
		b.WriteString(chart)
		b.WriteString("\n\n")
	}
	return b.String()
}

// PlotErrors charts a per-step error series. A positive validSteps is marked
// in the caption.
func PlotErrors(errs []float64, validSteps int, dt float64, opts PlotOptions) string {
	opts = opts.withDefaults()
	if opts.Window > 0 && len(errs) > opts.Window {
		errs = errs[:opts.Window]
	}
	if len(errs) < 2 {
		return "not enough points to plot\n"
	}
	caption := fmt.Sprintf("forecast error, valid for %d steps (t=%.2f)", validSteps, float64(validSteps)*dt)
	return asciigraph.Plot(finite(errs),
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.Yellow),
		asciigraph.Caption(caption),
	) + "\n"
}

func column(states [][]float64, k int) []float64 {
	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = s[k]
	}
	return out
}

// finite replaces non-finite values with the last finite one so asciigraph
// can scale the axis.
func finite(values []float64) []float64 {
	out := make([]float64, len(values))
	last := 0.0
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = last
		}
		out[i] = v
		last = v
	}
	return out
}
