package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	referenceSteps  = 400
	headingLength   = 6
	frameRate       = 30
)

type TickMsg time.Time

// Snapshot is one tick of the live run, kept for replay.
type Snapshot struct {
	State dynamo.State
	U     dynamo.Control
	Time  float64
	Err   float64
}

// Model steps a closed loop one tick per frame and draws the robot path
// against its reference.
type Model struct {
	sim       *sim.Simulator
	traj      dynamo.Trajectory
	cfg       dynamo.Config
	name      string
	x0        dynamo.State
	state     dynamo.State
	last      dynamo.Control
	t         float64
	steps     int
	total     int
	failed    int
	lastErr   error
	aborted   bool
	canvas    *Canvas
	view      Viewport
	reference []Point
	history   []Snapshot
	running   bool
	playHead  int
	showHelp  bool
}

func NewModel(s *sim.Simulator, traj dynamo.Trajectory, x0 dynamo.State, cfg dynamo.Config, name string) Model {
	total := int(math.Round(cfg.Duration / cfg.Dt))

	ref := make([]Point, 0, referenceSteps+1)
	for i := 0; i <= referenceSteps; i++ {
		sp := traj.At(cfg.Duration * float64(i) / referenceSteps)
		ref = append(ref, Point{sp.X, sp.Y})
	}

	canvas := NewCanvas(width, height)
	return Model{
		sim:       s,
		traj:      traj,
		cfg:       cfg,
		name:      name,
		x0:        x0.Clone(),
		state:     x0.Clone(),
		total:     total,
		canvas:    canvas,
		view:      FitViewport(canvas, append(ref, Point{x0[0], x0[1]})),
		reference: ref,
		history:   make([]Snapshot, 0, historyCapacity),
		running:   true,
		playHead:  -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// Done reports whether the run reached its duration or was aborted.
func (m Model) Done() bool {
	return m.aborted || m.steps >= m.total
}

func (m *Model) step() {
	if m.Done() {
		return
	}

	u, err := m.sim.Command(m.state, m.t, m.last, m.cfg.Fallback)
	if err != nil {
		m.failed++
		m.lastErr = err
		if u == nil {
			m.aborted = true
			return
		}
	}
	m.last = u

	sp := m.traj.At(m.t)
	snap := Snapshot{
		State: m.state.Clone(),
		U:     u,
		Time:  m.t,
		Err:   math.Hypot(m.state[0]-sp.X, m.state[1]-sp.Y),
	}
	m.history = append(m.history, snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}

	m.state = m.sim.Advance(m.state, u, m.t, m.cfg.Dt)
	m.steps++
	m.t = float64(m.steps) * m.cfg.Dt
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	m.state = m.x0.Clone()
	m.last = nil
	m.t = 0
	m.steps = 0
	m.failed = 0
	m.lastErr = nil
	m.aborted = false
	m.history = m.history[:0]
	m.playHead = -1
}

// current returns the snapshot being shown, live or replayed.
func (m *Model) current() (Snapshot, int) {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead], m.playHead + 1
	}
	snap := Snapshot{State: m.state, U: m.last, Time: m.t}
	if len(m.history) > 0 {
		snap.Err = m.history[len(m.history)-1].Err
	}
	return snap, len(m.history)
}

func (m *Model) draw(snap Snapshot, upto int) {
	m.canvas.Clear()
	m.canvas.Dotted(m.view, m.reference)

	path := make([]Point, 0, upto+1)
	for _, h := range m.history[:upto] {
		path = append(path, Point{h.State[0], h.State[1]})
	}
	path = append(path, Point{snap.State[0], snap.State[1]})
	m.canvas.Polyline(m.view, path)

	// robot marker: a short stroke along the heading
	x, y := m.view.Project(path[len(path)-1])
	th := snap.State[2]
	hx := x + int(math.Round(headingLength*math.Cos(th)))
	hy := y - int(math.Round(headingLength*math.Sin(th)))
	m.canvas.DrawLine(x, y, hx, hy)

	sp := m.traj.At(snap.Time)
	rx, ry := m.view.Project(Point{sp.X, sp.Y})
	for d := -1; d <= 1; d++ {
		m.canvas.Set(rx+d, ry)
		m.canvas.Set(rx, ry+d)
	}
}

func (m Model) status() string {
	switch {
	case m.aborted:
		return StatusFailed.Render("ABORTED")
	case m.playHead != -1:
		return StatusPaused.Render(fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history)))
	case m.Done():
		return StatusRunning.Render("DONE")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

// View renders the TUI interface.
func (m Model) View() string {
	snap, upto := m.current()
	m.draw(snap, upto)

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	errs := make([]float64, 0, upto)
	for _, h := range m.history[:upto] {
		errs = append(errs, h.Err)
	}
	if len(errs) > 1 {
		chart := asciigraph.Plot(errs, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("position error"))
		s.WriteString(chart + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Pose", fmt.Sprintf("%.2f, %.2f, %.2f", snap.State[0], snap.State[1], snap.State[2]))
	if len(snap.U) >= 2 {
		row("Command", fmt.Sprintf("v=%.2f w=%.2f", snap.U[0], snap.U[1]))
	}
	row("Error", fmt.Sprintf("%.3f", snap.Err))
	row("Failed ticks", fmt.Sprintf("%d", m.failed))
	if m.lastErr != nil {
		s.WriteString(StatusFailed.Render(truncate(m.lastErr.Error(), 40)) + "\n")
	}
	progress := 0.0
	if m.total > 0 {
		progress = float64(m.steps) / float64(m.total)
	}
	s.WriteString("\n" + ProgressBar(progress, 30) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause R:Reset Q:Quit\n[ ]:Replay T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(PathStyle.Render(m.canvas.String())),
		statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
  Space/P  Pause or resume
  R        Restart from the initial pose
  [ ]      Step through recorded ticks
  T        Cycle themes
  Q        Quit
  ?        Toggle this help

  dotted: reference   solid: robot path   +: current setpoint`

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
