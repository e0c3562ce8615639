// Package tui is the interactive lab: live frequencies, the most recent
// trials and a command line driving the simulator.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/statistics"
)

const (
	// recentTrials is how many recorded trials the log pane shows
	recentTrials = 200
	barWidth     = 24
)

// Model is the Bubble Tea model for the lab
type Model struct {
	sim    *simulator.Simulator
	bridge *Bridge
	logger *log.Logger
	speed  int

	trialLog viewport.Model
	input    textinput.Model

	snap      simulator.Snapshot
	status    string
	statusErr bool
	running   bool

	width    int
	height   int
	quitting bool
}

// New creates the model. The simulator must have been built with
// bridge.Callbacks() for run progress to reach the UI.
func New(sim *simulator.Simulator, bridge *Bridge, logger *log.Logger, speed int) *Model {
	vp := viewport.New(20, 5)

	ti := textinput.New()
	ti.Placeholder = "step, run 1000, auto 30, stop, reset, seed <text>, help, quit"
	ti.Focus()
	ti.CharLimit = 100
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)

	m := &Model{
		sim:      sim,
		bridge:   bridge,
		logger:   logger.WithPrefix("tui"),
		speed:    scheduler.ClampSpeed(speed),
		trialLog: vp,
		input:    ti,
		status:   "Type help for commands",
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.listen())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ProgressMsg:
		m.logger.Debug("Scheduler event", "kind", msg.Kind, "completed", msg.Progress.Completed)
		switch msg.Kind {
		case RunStarted:
			m.setStatus(fmt.Sprintf("Running (%s)", runLabel(msg.Progress)))
		case RunDone:
			m.setStatus(fmt.Sprintf("Finished %s trials", statistics.FormatCount(msg.Progress.Completed)))
		case RunStopped:
			m.setStatus(fmt.Sprintf("Stopped after %s trials", statistics.FormatCount(msg.Progress.Completed)))
		}
		m.refresh()
		return m, m.bridge.listen()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.quit()
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if m.execute(line) {
				return m, m.quit()
			}
			m.refresh()
		case "pgup":
			m.trialLog.HalfPageUp()
		case "pgdown":
			m.trialLog.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.sim.Stop()
	return tea.Sequence(tea.ClearScreen, tea.Quit)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// refresh takes a new snapshot and rebuilds the trial log
func (m *Model) refresh() {
	m.snap = m.sim.Snapshot()
	m.running = m.sim.Running()
	m.trialLog.SetContent(m.renderTrialLog())
	m.trialLog.GotoBottom()
}

func runLabel(p scheduler.Progress) string {
	if p.Auto {
		return "auto"
	}
	return statistics.FormatCount(p.Total) + " trials"
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	freq := paneStyle.Render(m.renderFrequencies())
	input := inputStyle.Width(max(m.width-2, 1)).Render(m.input.View())
	status := m.renderStatus()

	logHeight := m.height - lipgloss.Height(header) - lipgloss.Height(input) - lipgloss.Height(status) - 2
	m.trialLog.Width = max(m.width-lipgloss.Width(freq)-2, 10)
	m.trialLog.Height = max(logHeight, 1)
	logPane := paneStyle.Render(m.trialLog.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, freq, logPane)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

func (m *Model) renderHeader() string {
	state := InfoStyle.Render("idle")
	if m.running {
		state = RunningStyle.Render("running")
	}
	title := HeaderStyle.Render("Probability Lab")
	info := fmt.Sprintf(" %s mode  seed %s  %s trials  speed %d  ",
		m.snap.Mode, m.snap.Seed, statistics.FormatCount(m.snap.Trials), m.speed)
	return title + info + state
}

func (m *Model) renderStatus() string {
	if m.statusErr {
		return ErrorStyle.Render(m.status)
	}
	return InfoStyle.Render(m.status)
}

func (m *Model) renderFrequencies() string {
	s := m.snap.Summary()
	var b strings.Builder
	writeDevice(&b, "A", m.snap.A, s.A)
	if s.B != nil {
		b.WriteString("\n")
		writeDevice(&b, "B", m.snap.B, *s.B)
	}
	if s.Joint != nil && s.Trials > 0 {
		fmt.Fprintf(&b, "\n%s\n", InfoStyle.Render(fmt.Sprintf("%s  independence chi-square %.2f (df %d)",
			m.snap.Relationship, s.Joint.ChiSquare, s.Joint.DegreesOfFreedom)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDevice(b *strings.Builder, name string, def *device.Definition, t statistics.Table) {
	title := fmt.Sprintf("%s: %s", name, def.Name)
	if def.Icon != "" {
		title = def.Icon + " " + title
	}
	b.WriteString(LabelStyle.Bold(true).Render(title))
	b.WriteString("\n")

	width := 0
	for _, r := range t.Rows {
		width = max(width, lipgloss.Width(r.Label))
	}
	for _, r := range t.Rows {
		fmt.Fprintf(b, "%s %s %7s %s\n",
			LabelStyle.Render(fmt.Sprintf("%-*s", width, r.Label)),
			BarStyle.Render(bar(r.Relative)),
			statistics.FormatProbability(r.Relative, 1),
			TheoryStyle.Render("("+statistics.FormatProbability(r.Theoretical, 1)+")"))
	}
}

// bar draws p as a fixed-width horizontal bar; NaN draws empty
func bar(p float64) string {
	filled := 0
	if !math.IsNaN(p) {
		filled = int(math.Round(min(max(p, 0), 1) * barWidth))
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func (m *Model) renderTrialLog() string {
	if m.snap.Trials == 0 {
		return InfoStyle.Render("No trials yet")
	}
	n := m.snap.HistoryLen
	if n == 0 {
		return InfoStyle.Render("History is disabled")
	}
	start := max(n-recentTrials, 0)
	window := m.sim.HistoryWindow(start, recentTrials)

	lines := make([]string, len(window))
	for i, p := range window {
		if m.snap.Mode == simulator.Two {
			lines[i] = fmt.Sprintf("#%-8d %s  %s", start+i+1, m.snap.A.Label(int(p.A)), m.snap.B.Label(int(p.B)))
		} else {
			lines[i] = fmt.Sprintf("#%-8d %s", start+i+1, m.snap.A.Label(int(p.A)))
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the Bubble Tea program and blocks until the user quits
func Run(m *Model, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := p.Run()
	m.sim.Stop()
	return err
}
