package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/logging"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
	"github.com/san-kum/solsim/internal/viz"
)

const (
	sidebarWidth    = 34
	chromeRows      = 4 // header, status, hints, banner
	historyCapacity = 120
	messageTicks    = 120
	criticalDelay   = 3 * time.Second
)

type tickMsg time.Time

type quitMsg struct{}

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Options configures the interactive front end.
type Options struct {
	StatePath string
	Log       hclog.Logger
}

type model struct {
	ctx       context.Context
	sim       *sim.Simulation
	cfg       *config.Config
	log       hclog.Logger
	statePath string

	theme    viz.Theme
	styles   viz.Styles
	viewport viz.Viewport
	width    int
	height   int

	paused       bool // held by the user
	waiting      bool // waiting for a key after an action
	message      string
	messageTicks int
	banner       string
	critical     error

	active []float64
	radius []float64
}

func newModel(ctx context.Context, s *sim.Simulation, opts Options) model {
	cfg := s.Config()
	theme := viz.GetTheme(cfg.UI.Theme)
	log := opts.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	path := opts.StatePath
	if path == "" {
		path = cfg.Storage.StateFile
	}

	m := model{
		ctx:       ctx,
		sim:       s,
		cfg:       cfg,
		log:       log.Named("tui"),
		statePath: path,
		theme:     theme,
		styles:    viz.NewStyles(theme),
		active:    make([]float64, 0, historyCapacity),
		radius:    make([]float64, 0, historyCapacity),
	}
	m.resize(120, 40)
	return m
}

// Run starts the interactive terminal front end and blocks until the user
// quits. A critical failure is shown for a few seconds and then returned.
func Run(ctx context.Context, s *sim.Simulation, opts Options) error {
	p := tea.NewProgram(newModel(ctx, s, opts), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok && m.critical != nil {
		return m.critical
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tick(m.cfg.Sim.FPS)
}

func (m *model) resize(w, h int) {
	m.width = w
	m.height = h
	m.viewport = viz.Viewport{
		Bounds: m.sim.Bounds(),
		Cols:   max(w-sidebarWidth-2, 10),
		Rows:   max(h-chromeRows, 5),
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case quitMsg:
		return m, tea.Quit
	case tickMsg:
		if m.critical != nil {
			return m, nil
		}
		if !m.paused && !m.waiting {
			if cmd := m.step(); cmd != nil {
				return m, cmd
			}
		}
		if m.messageTicks > 0 {
			m.messageTicks--
			if m.messageTicks == 0 {
				m.message = ""
			}
		}
		return m, tick(m.cfg.Sim.FPS)
	case tea.MouseMsg:
		if m.critical != nil {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if m.waiting {
			m.waiting = false
			return m, nil
		}
		m.click(msg.X, msg.Y-1)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) step() tea.Cmd {
	report, err := m.sim.Tick(m.ctx)
	if err != nil {
		m.critical = err
		logging.Critical(m.log, "simulation stopped", "tick", m.sim.TickCount(), "error", err)
		return tea.Tick(criticalDelay, func(time.Time) tea.Msg { return quitMsg{} })
	}

	for _, e := range report.Events {
		m.say(e.Message())
	}
	if err := report.Err(); err != nil {
		m.banner = err.Error()
	}

	snap := m.sim.Snapshot()
	m.active = pushHistory(m.active, float64(snap.ActivePlanets()))
	m.radius = pushHistory(m.radius, snap.BlackHoleRadius())
	return nil
}

func pushHistory(h []float64, v float64) []float64 {
	if len(h) >= historyCapacity {
		h = h[1:]
	}
	return append(h, v)
}

func (m *model) say(msg string) {
	m.message = msg
	m.messageTicks = messageTicks
}

// acted is called after every user action.
func (m *model) acted() {
	m.waiting = m.cfg.UI.ConfirmActions
}

// click spawns a black hole under the cell at (col, row) of the canvas.
func (m *model) click(col, row int) {
	if !m.viewport.Contains(col, row) {
		return
	}
	pos := m.viewport.ToPanel(col, row)
	if m.cfg.InControlStrip(pos.Y) {
		return
	}
	if err := m.sim.CreateBlackHole(pos.X, pos.Y); err != nil {
		m.fail("create black hole", err)
		return
	}
	m.say(fmt.Sprintf("Black hole created at (%d, %d)", int(pos.X), int(pos.Y)))
	m.acted()
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.critical != nil {
		return m, nil
	}
	if m.waiting {
		m.waiting = false
		return m, nil
	}

	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
		return m, nil
	case "t":
		m.theme = viz.NextTheme(m.theme)
		m.styles = viz.NewStyles(m.theme)
		m.say("Theme: " + m.theme.Name)
		return m, nil
	case "+", "=":
		m.say(fmt.Sprintf("Black hole size: %d", m.sim.ChangeBlackHoleSize(m.cfg.Sim.BlackHole.Step)))
	case "-", "_":
		m.say(fmt.Sprintf("Black hole size: %d", m.sim.ChangeBlackHoleSize(-m.cfg.Sim.BlackHole.Step)))
	case "b":
		m.sim.ResetBlackHole()
		m.say("Black hole reset!")
	case "r":
		m.sim.Reset()
		m.banner = ""
		m.say("Simulation reset!")
	case "s":
		m.save()
	case "l":
		m.load()
	default:
		if len(key) != 1 || key[0] < '1' || int(key[0]-'1') >= len(m.cfg.Sim.SpeedSteps) {
			return m, nil
		}
		speed := m.cfg.Sim.SpeedSteps[key[0]-'1']
		if err := m.sim.SetSpeed(speed); err != nil {
			m.fail("set speed", err)
			return m, nil
		}
		m.say(fmt.Sprintf("Speed set to %gx", speed))
	}
	m.acted()
	return m, nil
}

func (m *model) save() {
	if err := storage.SaveState(m.statePath, m.sim.Snapshot()); err != nil {
		m.fail("save state", err)
		return
	}
	m.log.Info("state saved", "path", m.statePath)
	m.say("State saved")
}

func (m *model) load() {
	st, err := storage.LoadState(m.statePath)
	if err != nil {
		m.fail("load state", err)
		return
	}
	if err := m.sim.Restore(st.Snapshot()); err != nil {
		m.fail("load state", err)
		return
	}
	m.log.Info("state loaded", "path", m.statePath, "saved_at", st.Timestamp)
	m.say("State loaded")
}

func (m *model) fail(op string, err error) {
	m.log.Error(op+" failed", "error", err)
	m.banner = fmt.Sprintf("%s: %v", op, err)
}

func (m model) View() string {
	s := m.styles
	if m.critical != nil {
		box := s.Critical.Render(fmt.Sprintf("CRITICAL ERROR\n\n%v\n\nExiting in %d seconds", m.critical, int(criticalDelay.Seconds())))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	snap := m.sim.Snapshot()
	header := viz.GradientText("solsim", m.theme.Primary, m.theme.Accent) + "  " +
		s.Subtle.Render(fmt.Sprintf("tick %d", snap.Tick))
	if m.paused {
		header += "  " + s.Paused.Render("PAUSED")
	} else {
		header += "  " + s.Running.Render("RUNNING")
	}

	canvas := viz.Render(snap, m.viewport, m.theme).String()
	body := lipgloss.JoinHorizontal(lipgloss.Top, strings.TrimSuffix(canvas, "\n"), m.sidebar(snap))

	status := s.Message.Render(m.message)
	if m.waiting {
		status = s.Paused.Render("Press any key to continue")
	}
	hints := s.KeyHint.Render("[click] black hole  [1-4] speed  [+/-] size  [b] reset hole  [r] reset  [s] save  [l] load  [t] theme  [q] quit")

	lines := []string{header, body, status, hints}
	if m.banner != "" {
		lines = append(lines, s.Banner.Render("Error: "+m.banner))
	}
	return strings.Join(lines, "\n")
}

func (m model) sidebar(snap sim.Snapshot) string {
	s := m.styles
	row := func(label, value string) string {
		return s.MetricLabel.Render(label) + s.MetricValue.Render(value)
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("System") + "\n")
	b.WriteString(row("speed", fmt.Sprintf("%gx", snap.Speed)) + "\n")
	b.WriteString(row("spawn size", fmt.Sprintf("%d", snap.SpawnSize)) + "\n")
	b.WriteString(row("planets", fmt.Sprintf("%d/%d", snap.ActivePlanets(), len(snap.Planets))) + "\n")
	sun := "active"
	if !snap.Sun.Active {
		sun = "swallowed"
	}
	b.WriteString(row("sun", sun) + "\n")
	b.WriteString(row("dilation", fmt.Sprintf("%.2fx", snap.MaxTimeDilation())) + "\n")
	b.WriteString(row("collisions", fmt.Sprintf("%d", snap.Stats.Collisions+snap.Stats.SunCollisions)) + "\n")
	b.WriteString(s.Separator(sidebarWidth-4) + "\n")

	if bh := snap.BlackHole; bh != nil {
		b.WriteString(s.Title.Render("Black hole") + "\n")
		b.WriteString(row("radius", fmt.Sprintf("%.1f", bh.Radius)) + "\n")
		b.WriteString(row("mass", fmt.Sprintf("%.0f", bh.Mass)) + "\n")
		b.WriteString(row("absorbed", fmt.Sprintf("%d", snap.Stats.Absorbed)) + "\n")
		for _, sp := range bh.Spirals {
			b.WriteString(s.MetricLabel.Render(sp.Planet) + s.ProgressBar(sp.Progress, 16) + "\n")
		}
	} else {
		b.WriteString(s.Subtle.Render("click to spawn a black hole") + "\n")
	}
	b.WriteString(s.Separator(sidebarWidth-4) + "\n")

	b.WriteString(s.Subtle.Render("planets") + "\n")
	b.WriteString(s.SparklineChart(m.active, sidebarWidth-4) + "\n")
	b.WriteString(s.Subtle.Render("black hole radius") + "\n")
	b.WriteString(s.SparklineChart(m.radius, sidebarWidth-4) + "\n")
	b.WriteString(s.Separator(sidebarWidth-4) + "\n")

	for _, p := range snap.Planets {
		mark := lipgloss.NewStyle().Foreground(m.theme.PlanetColor(p.Color)).Render("●")
		state := ""
		switch {
		case !p.Active:
			mark = s.Subtle.Render("○")
			state = "gone"
		case p.Absorbing:
			state = "spiralling"
		case p.Ejected:
			state = "ejected"
		case p.TimeDilation > 1.01:
			state = fmt.Sprintf("t×%.2f", p.TimeDilation)
		}
		b.WriteString(fmt.Sprintf("%s %-8s %s\n", mark, p.Name, s.Subtle.Render(state)))
	}

	return s.Panel.Width(sidebarWidth).Render(strings.TrimSuffix(b.String(), "\n"))
}
