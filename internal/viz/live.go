package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	canvasWidth  = 48
	canvasHeight = 18
	trailLength  = 400
	sparkWidth   = 36
)

type TickMsg time.Time

// Replay is the data shown by the live viewer. Truth and Forecast are
// aligned step by step; Errors holds the per-step forecast error.
type Replay struct {
	Title      string
	Dt         float64
	Truth      [][]float64
	Forecast   [][]float64
	Errors     []float64
	ValidSteps int
}

// Model steps through a Replay on a timer.
type Model struct {
	replay    Replay
	head      int
	speed     int
	running   bool
	theme     Theme
	st        styles
	projector Projector
	truthCv   *Canvas
	predCv    *Canvas
}

func NewModel(r Replay) Model {
	all := make([][]float64, 0, len(r.Truth)+len(r.Forecast))
	all = append(all, r.Truth...)
	all = append(all, r.Forecast...)
	theme := Themes[0]
	return Model{
		replay:    r,
		speed:     1,
		running:   true,
		theme:     theme,
		st:        newStyles(theme),
		projector: NewProjector(all...),
		truthCv:   NewCanvas(canvasWidth, canvasHeight),
		predCv:    NewCanvas(canvasWidth, canvasHeight),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) steps() int {
	return min(len(m.replay.Truth), len(m.replay.Forecast))
}

// Update handles input events and advances the replay.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.head = 0
		case "[":
			m.running = false
			m.head = max(0, m.head-1)
		case "]":
			m.running = false
			m.head = min(m.steps()-1, m.head+1)
		case "+", "=":
			m.speed = min(m.speed*2, 64)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "left", "h":
			m.projector.Angle -= 0.1
		case "right", "l":
			m.projector.Angle += 0.1
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		}
	case TickMsg:
		if m.running {
			m.head += m.speed
			if m.head >= m.steps() {
				m.head = m.steps() - 1
				m.running = false
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) trail(states [][]float64) [][]float64 {
	end := min(m.head+1, len(states))
	start := max(0, end-trailLength)
	return states[start:end]
}

// View renders the attractor panels and the stats column.
func (m Model) View() string {
	n := m.steps()
	if n == 0 {
		return "nothing to replay\n"
	}
	i := max(0, min(m.head, n-1))

	m.truthCv.Clear()
	m.projector.DrawTrail(m.truthCv, m.trail(m.replay.Truth))
	m.predCv.Clear()
	m.projector.DrawTrail(m.predCv, m.trail(m.replay.Forecast))

	truthView := m.st.Panel.Render(m.st.Truth.Render("truth") + "\n" + m.st.Truth.Render(m.truthCv.String()))
	predView := m.st.Panel.Render(m.st.Forecast.Render("forecast") + "\n" + m.st.Forecast.Render(m.predCv.String()))

	var s strings.Builder
	s.WriteString(m.st.Header.Render(m.replay.Title) + "\n")

	status := m.st.Running.Render("PLAYING")
	if !m.running {
		status = m.st.Paused.Render("PAUSED")
	}
	fmt.Fprintf(&s, "%s  x%d\n\n", status, m.speed)

	s.WriteString(m.st.Label.Render("Step") + m.st.Value.Render(fmt.Sprintf("%d / %d", i+1, n)) + "\n")
	s.WriteString(m.st.Label.Render("Time") + m.st.Value.Render(fmt.Sprintf("%.2f", float64(i)*m.replay.Dt)) + "\n")
	s.WriteString(m.st.ProgressBar(float64(i+1)/float64(n), sparkWidth) + "\n\n")

	truth, pred := m.replay.Truth[i], m.replay.Forecast[i]
	for k := 0; k < len(truth) && k < len(pred); k++ {
		name := fmt.Sprintf("c%d", k)
		if len(truth) == 3 {
			name = componentNames[k]
		}
		fmt.Fprintf(&s, "%s%s  %s\n", m.st.Label.Render(name),
			m.st.Truth.Render(fmt.Sprintf("%8.3f", truth[k])),
			m.st.Forecast.Render(fmt.Sprintf("%8.3f", pred[k])))
	}

	if i < len(m.replay.Errors) {
		valid := m.st.Running.Render("valid")
		if i >= m.replay.ValidSteps {
			valid = m.st.Invalid.Render("beyond valid time")
		}
		s.WriteString("\n" + m.st.Label.Render("Error") +
			m.st.Value.Render(fmt.Sprintf("%.3f", m.replay.Errors[i])) + "  " + valid + "\n")
		s.WriteString(m.st.Sparkline(m.replay.Errors[:i+1], sparkWidth) + "\n")
		if i > 1 {
			window := finite(m.replay.Errors[max(0, i+1-sparkWidth*4) : i+1])
			s.WriteString(asciigraph.Plot(window, asciigraph.Height(5), asciigraph.Width(sparkWidth),
				asciigraph.Caption("error")) + "\n")
		}
	}
	s.WriteString(m.st.Label.Render("Valid for") +
		m.st.Value.Render(fmt.Sprintf("%d steps (t=%.2f)", m.replay.ValidSteps, float64(m.replay.ValidSteps)*m.replay.Dt)) + "\n")

	s.WriteString(m.st.KeyHint.Render("\nSP:Pause R:Restart [ ]:Step +/-:Speed\n←→:Rotate T:Theme Q:Quit"))

	stats := m.st.Panel.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.JoinVertical(lipgloss.Left, truthView, predView), stats)
}

// RunLive starts the viewer in the alternate screen and blocks until the
// user quits.
func RunLive(r Replay) error {
	_, err := tea.NewProgram(NewModel(r), tea.WithAltScreen()).Run()
	return err
}
