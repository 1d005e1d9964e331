package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/klimalab/ebmsim/internal/config"
	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/rk4"
)

const (
	chartWidth      = 64
	chartHeight     = 10
	historyCapacity = 600
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	chartStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	statsStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	profileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	warmStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	coldStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives an integration interactively and renders its progress.
type Model struct {
	cfg      *config.Config
	scenario string

	run   *config.Run
	integ *rk4.Integrator
	t     float64
	T     ebm.State
	step  int

	running bool
	done    bool
	err     error

	gmtHistory []float64

	// stepsPerTick batches integration steps per frame so long runs
	// progress at a watchable pace.
	stepsPerTick int
}

// NewModel builds the live view for a configuration. The run inside it
// is private to the view; resetting rebuilds it from scratch so any
// forcing cursors and noise state start over as well.
func NewModel(cfg *config.Config, scenario string) (Model, error) {
	m := Model{
		cfg:          cfg,
		scenario:     scenario,
		integ:        rk4.New(),
		running:      true,
		stepsPerTick: cfg.RK4Input.NumberOfIntegration/1200 + 1,
		gmtHistory:   make([]float64, 0, historyCapacity),
	}
	if err := m.rebuild(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) rebuild() error {
	run, err := m.cfg.Build()
	if err != nil {
		return err
	}
	m.run = run
	m.t = run.Time0
	m.T = run.Initial.Clone()
	m.step = 0
	m.done = false
	m.err = nil
	m.gmtHistory = m.gmtHistory[:0]
	m.gmtHistory = append(m.gmtHistory, run.Grid.GlobalMean(m.T))
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.rebuild(); err != nil {
				m.err = err
				m.done = true
			}
		}
	case TickMsg:
		if m.running && !m.done {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) advance() {
	h := m.run.RK4.StepSize
	for i := 0; i < m.stepsPerTick && m.step < m.run.RK4.Steps; i++ {
		if err := m.integ.Step(m.run.Equation, m.t, m.T, h); err != nil {
			m.err = err
			m.done = true
			return
		}
		m.t += h
		m.step++
		if !m.T.IsValid() {
			m.err = &ebm.NumericalError{Step: m.step, Time: m.t, Term: "state update"}
			m.done = true
			return
		}
	}
	m.gmtHistory = append(m.gmtHistory, m.run.Grid.GlobalMean(m.T))
	if len(m.gmtHistory) > historyCapacity {
		m.gmtHistory = m.gmtHistory[1:]
	}
	if m.step >= m.run.RK4.Steps {
		m.done = true
	}
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.scenario)) + "\n")

	status := "RUNNING"
	switch {
	case m.err != nil:
		status = fmt.Sprintf("FAILED: %v", m.err)
	case m.done:
		status = "FINISHED"
	case !m.running:
		status = "PAUSED"
	}
	s.WriteString(status + "\n")

	if len(m.gmtHistory) > 1 {
		chart := asciigraph.Plot(m.gmtHistory,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption("global mean temperature [K]"))
		s.WriteString(chartStyle.Render(chart) + "\n")
	}

	var stats strings.Builder
	years := m.t / ebm.SecondsPerYear
	stats.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f yr", years)) + "\n")
	stats.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.step, m.run.RK4.Steps)) + "\n")
	gmt := m.run.Grid.GlobalMean(m.T)
	stats.WriteString(labelStyle.Render("GMT") + valueStyle.Render(fmt.Sprintf("%.3f K", gmt)) + "\n")
	if len(m.T) > 1 {
		stats.WriteString(labelStyle.Render("Warmest") + warmStyle.Render(fmt.Sprintf("%.2f K", floats.Max(m.T))) + "\n")
		stats.WriteString(labelStyle.Render("Coldest") + coldStyle.Render(fmt.Sprintf("%.2f K", floats.Min(m.T))) + "\n")
	}
	s.WriteString(statsStyle.Render(stats.String()) + "\n")

	if len(m.T) > 1 {
		s.WriteString(profileStyle.Render(m.profile()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause  R:Reset  Q:Quit"))
	return s.String()
}

// profile renders the zonal temperature field as one bar per band,
// south pole on top.
func (m Model) profile() string {
	lo, hi := floats.Min(m.T), floats.Max(m.T)
	span := hi - lo
	if span < 1e-9 {
		span = 1e-9
	}

	const barWidth = 40
	var b strings.Builder
	b.WriteString("lat      T [K]\n")
	for i, band := range m.run.Grid.Bands() {
		filled := int(float64(barWidth) * (m.T[i] - lo) / span)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		b.WriteString(fmt.Sprintf("%+6.1f° %s %.2f\n", band.Center, bar, m.T[i]))
	}
	return b.String()
}
