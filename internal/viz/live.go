package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sim"
)

const (
	width           = 72
	height          = 20
	historyCapacity = 600
	maxSpeed        = 64
)

// Field selects which particle quantity is drawn against position.
type Field int

const (
	FieldDensity Field = iota
	FieldVelocity
	FieldPressure
	FieldH
	FieldEnergy
	numFields
)

func (f Field) String() string {
	return [...]string{"density", "velocity", "pressure", "h", "u"}[f]
}

func (f Field) Of(p *particle.Particle) float64 {
	switch f {
	case FieldVelocity:
		return p.Vel
	case FieldPressure:
		return p.Pressure
	case FieldH:
		return p.H
	case FieldEnergy:
		return p.U
	}
	return p.Density
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a simulator from the Bubble Tea event loop, advancing a few
// steps per frame and drawing the selected field.
type Model struct {
	sim         *sim.Simulator
	name        string
	limit       float64
	canvas      *Canvas
	field       Field
	showGhosts  bool
	running     bool
	speed       int
	err         error
	peakHistory []float64
	showHelp    bool
}

// NewModel wraps an initialized simulator.
func NewModel(s *sim.Simulator, name string) Model {
	return Model{
		sim:         s,
		name:        name,
		limit:       s.Config().Params.Limit,
		canvas:      NewCanvas(width, height),
		running:     true,
		speed:       1,
		peakHistory: make([]float64, 0, historyCapacity),
	}
}

// Err reports the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.advance(1)
			}
		case "f", "tab":
			m.field = (m.field + 1) % numFields
		case "g":
			m.showGhosts = !m.showGhosts
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "t":
			CycleTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if m.err != nil || m.sim.Phase() != sim.Running {
			m.running = false
			return
		}
		if err := m.sim.Step(); err != nil {
			m.err = err
			m.running = false
			return
		}
		m.recordPeak()
	}
}

func (m *Model) recordPeak() {
	peak := 0.0
	for _, p := range m.sim.Store().Alive() {
		if p.Density > peak {
			peak = p.Density
		}
	}
	m.peakHistory = append(m.peakHistory, peak)
	if len(m.peakHistory) > historyCapacity {
		m.peakHistory = m.peakHistory[1:]
	}
}

func (m *Model) samples() ([]float64, []float64) {
	st := m.sim.Store()
	parts := st.Alive()
	if m.showGhosts {
		parts = st.All()
	}
	xs := make([]float64, len(parts))
	ys := make([]float64, len(parts))
	for i := range parts {
		xs[i] = parts[i].Pos
		ys[i] = m.field.Of(&parts[i])
	}
	return xs, ys
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return ErrorStyle().Render("FAILED")
	case m.sim.Phase() == sim.Finished:
		return SuccessStyle().Render("FINISHED")
	case !m.running:
		return WarningStyle().Render("PAUSED")
	}
	return SuccessStyle().Render(fmt.Sprintf("RUNNING x%d", m.speed))
}

func (m Model) View() string {
	xs, ys := m.samples()
	reach := m.limit
	if m.showGhosts {
		reach *= 1.25
	}
	b := Fit(-reach, reach, ys)
	m.canvas.Clear()
	m.canvas.VLine(b, -m.limit)
	m.canvas.VLine(b, m.limit)
	m.canvas.Scatter(b, xs, ys)

	plot := lipgloss.JoinVertical(lipgloss.Left,
		MutedStyle().Render(fmt.Sprintf("%s  [%.3g, %.3g]", m.field, b.YMin, b.YMax)),
		m.canvas.String(),
		MutedStyle().Render(fmt.Sprintf("x ∈ [%.3g, %.3g]", -reach, reach)),
	)

	st := m.sim.Store()
	res := m.sim.Engine().LastDensityStats()
	var s strings.Builder
	s.WriteString(TitleStyle().Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + ValueStyle().Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4f / %.4g", m.sim.Time(), m.sim.Config().EndTime))
	row("Step", fmt.Sprintf("%d", m.sim.Steps()))
	row("Alive", fmt.Sprintf("%d", st.NAlive()))
	row("Ghosts", fmt.Sprintf("%d", st.NGhost()))
	row("Capacity", fmt.Sprintf("%d", st.Cap()))
	row("Newton", fmt.Sprintf("%d", res.Newton))
	row("Bisection", fmt.Sprintf("%d", res.Bisection))
	row("Best est.", fmt.Sprintf("%d", res.BestEstimate))

	if len(m.peakHistory) > 1 {
		chart := asciigraph.Plot(m.peakHistory, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("peak density"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + ErrorStyle().Render(wrap(m.err.Error(), 38)) + "\n")
	}
	s.WriteString(helpStyle.Render("\nSP:Pause N:Step F:Field G:Ghosts\n+/-:Speed T:Theme ?:Help Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(plot), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpPanel() + "\n\n" + main
	}
	return main
}

func helpPanel() string {
	keys := [][2]string{
		{"Space", "Pause/Resume"},
		{"N", "Single step while paused"},
		{"F / Tab", "Cycle plotted field"},
		{"G", "Show ghost particles"},
		{"+ / -", "Steps per frame"},
		{"T", "Cycle themes"},
		{"?", "Toggle this help"},
		{"Q", "Quit"},
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(KeyStyle().Render(fmt.Sprintf("%-8s", k[0])) + "  " + k[1] + "\n")
	}
	return PanelStyle().Render(strings.TrimRight(b.String(), "\n"))
}

func wrap(s string, n int) string {
	var out strings.Builder
	line := 0
	for _, word := range strings.Fields(s) {
		if line > 0 && line+len(word)+1 > n {
			out.WriteByte('\n')
			line = 0
		} else if line > 0 {
			out.WriteByte(' ')
			line++
		}
		out.WriteString(word)
		line += len(word)
	}
	return out.String()
}
