package gui

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/hashicorp/go-hclog"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/logging"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
)

// Theme Colors
var (
	ColBg        = rl.NewColor(0, 0, 20, 255)
	ColHeader    = rl.NewColor(20, 20, 50, 255)
	ColText      = rl.NewColor(255, 255, 255, 255)
	ColInfo      = rl.NewColor(180, 180, 220, 255)
	ColTextDim   = rl.NewColor(90, 90, 120, 255)
	ColOrbit     = rl.NewColor(50, 50, 50, 255)
	ColButton    = rl.NewColor(60, 60, 120, 255)
	ColHover     = rl.NewColor(90, 90, 170, 255)
	ColSunCore   = rl.NewColor(255, 255, 0, 255)
	ColSunGlow   = rl.NewColor(255, 140, 0, 255)
	ColHoleGlow  = rl.NewColor(148, 0, 211, 255)
	ColAccretion = rl.NewColor(200, 0, 200, 160)
	ColFlash     = rl.NewColor(255, 255, 255, 255)
	ColError     = rl.NewColor(255, 80, 80, 255)
	ColPrompt    = rl.NewColor(80, 80, 200, 255)
)

const (
	buttonHeight  = 30
	buttonOffset  = 30
	buttonMargin  = 10
	messageTime   = 2 * time.Second
	criticalDelay = 3 * time.Second
)

// Button is a clickable rectangle of the control strip.
type Button struct {
	Rect   rl.Rectangle
	Label  string
	Action func(a *App)
}

// Options configures the desktop front end.
type Options struct {
	StatePath string
	Log       hclog.Logger
}

type App struct {
	ctx       context.Context
	Sim       *sim.Simulation
	Cfg       *config.Config
	Log       hclog.Logger
	StatePath string

	Buttons  []Button
	Stars    []star
	Waiting  bool
	Prompt   string
	Message  string
	Banner   string
	Critical error

	messageAt  time.Time
	criticalAt time.Time
	frame      float64
}

type star struct {
	x, y, size, speed float32
}

// initWindow opens the window at the configured size and frame rate, and
// disables the default exit key.
func initWindow(cfg *config.Config) {
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), "solsim")
	rl.SetTargetFPS(int32(cfg.Sim.FPS))
	rl.SetExitKey(0)
}

// NewApp wires the control strip and the starfield around s.
func NewApp(ctx context.Context, s *sim.Simulation, opts Options) *App {
	cfg := s.Config()
	log := opts.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	path := opts.StatePath
	if path == "" {
		path = cfg.Storage.StateFile
	}

	a := &App{
		ctx:       ctx,
		Sim:       s,
		Cfg:       cfg,
		Log:       log.Named("gui"),
		StatePath: path,
	}
	a.Buttons = a.layoutButtons()

	rng := rand.New(rand.NewSource(1))
	a.Stars = make([]star, 150)
	for i := range a.Stars {
		a.Stars[i] = star{
			x:     float32(rng.Intn(cfg.Window.Width)),
			y:     float32(rng.Intn(cfg.Window.Height)),
			size:  float32(1 + rng.Intn(2)),
			speed: 0.1 + rng.Float32()*0.4,
		}
	}
	return a
}

func buttonY(height, row int) float32 {
	return float32(height - buttonOffset - (buttonHeight+buttonMargin)*row)
}

// layoutButtons places the two button rows at the bottom of the window:
// black-hole and state controls above, speed steps below.
func (a *App) layoutButtons() []Button {
	h := a.Cfg.Window.Height
	step := a.Cfg.Sim.BlackHole.Step
	rect := func(x, row, w int) rl.Rectangle {
		return rl.NewRectangle(float32(x), buttonY(h, row), float32(w), buttonHeight)
	}

	buttons := []Button{
		{rect(10, 1, 120), "Reset BH", func(a *App) { a.resetBlackHole() }},
		{rect(140, 1, 30), "-", func(a *App) { a.resize(-step) }},
		{rect(180, 1, 30), "+", func(a *App) { a.resize(step) }},
		{rect(220, 1, 120), "Reset All", func(a *App) { a.reset() }},
		{rect(400, 1, 80), "Save", func(a *App) { a.save() }},
		{rect(490, 1, 80), "Load", func(a *App) { a.load() }},
	}
	for i, speed := range a.Cfg.Sim.SpeedSteps {
		speed := speed
		buttons = append(buttons, Button{rect(10+90*i, 0, 80), fmt.Sprintf("%gx", speed), func(a *App) { a.setSpeed(speed) }})
	}
	return buttons
}

// Run opens the window and blocks until it is closed. A critical failure is
// shown for a few seconds and then returned.
func Run(ctx context.Context, s *sim.Simulation, opts Options) error {
	initWindow(s.Config())
	defer rl.CloseWindow()
	return NewApp(ctx, s, opts).RunLoop()
}

func (a *App) RunLoop() error {
	for !rl.WindowShouldClose() {
		if a.Critical != nil {
			a.drawCritical()
			if time.Since(a.criticalAt) >= criticalDelay {
				return a.Critical
			}
			continue
		}
		a.Update()
		a.Draw()
	}
	return nil
}

func (a *App) Update() {
	mouse := rl.GetMousePosition()
	clicked := rl.IsMouseButtonPressed(rl.MouseLeftButton)
	key := rl.GetKeyPressed()

	if a.Waiting {
		if clicked || key != 0 {
			a.Waiting = false
			a.Prompt = ""
		}
		return
	}

	if clicked {
		a.click(mouse)
	}
	a.handleKey(key)
	if a.Waiting || a.Critical != nil {
		return
	}

	report, err := a.Sim.Tick(a.ctx)
	if err != nil {
		a.Critical = err
		a.criticalAt = time.Now()
		logging.Critical(a.Log, "simulation stopped", "tick", a.Sim.TickCount(), "error", err)
		return
	}
	for _, e := range report.Events {
		a.say(e.Message())
	}
	if err := report.Err(); err != nil {
		a.Banner = err.Error()
	}
	a.frame++
}

func (a *App) click(pos rl.Vector2) {
	for _, b := range a.Buttons {
		if rl.CheckCollisionPointRec(pos, b.Rect) {
			b.Action(a)
			return
		}
	}
	if a.Cfg.InControlStrip(float64(pos.Y)) {
		return
	}
	if err := a.Sim.CreateBlackHole(float64(pos.X), float64(pos.Y)); err != nil {
		a.fail("create black hole", err)
		return
	}
	a.acted("Black hole created!")
}

func (a *App) handleKey(key int32) {
	switch key {
	case rl.KeyB:
		a.resetBlackHole()
	case rl.KeyR:
		a.reset()
	case rl.KeyS:
		a.save()
	case rl.KeyL:
		a.load()
	case rl.KeyEqual, rl.KeyKpAdd:
		a.resize(a.Cfg.Sim.BlackHole.Step)
	case rl.KeyMinus, rl.KeyKpSubtract:
		a.resize(-a.Cfg.Sim.BlackHole.Step)
	default:
		if i := int(key - rl.KeyOne); key >= rl.KeyOne && i < len(a.Cfg.Sim.SpeedSteps) {
			a.setSpeed(a.Cfg.Sim.SpeedSteps[i])
		}
	}
}

func (a *App) setSpeed(f float64) {
	if err := a.Sim.SetSpeed(f); err != nil {
		a.fail("set speed", err)
		return
	}
	a.acted(fmt.Sprintf("Speed set to %gx", f))
}

func (a *App) resize(delta int) {
	a.acted(fmt.Sprintf("Black hole size: %d", a.Sim.ChangeBlackHoleSize(delta)))
}

func (a *App) resetBlackHole() {
	a.Sim.ResetBlackHole()
	a.acted("Black hole reset!")
}

func (a *App) reset() {
	a.Sim.Reset()
	a.Banner = ""
	a.acted("Simulation reset!")
}

func (a *App) save() {
	if err := storage.SaveState(a.StatePath, a.Sim.Snapshot()); err != nil {
		a.fail("save state", err)
		return
	}
	a.Log.Info("state saved", "path", a.StatePath)
	a.acted("State saved!")
}

func (a *App) load() {
	st, err := storage.LoadState(a.StatePath)
	if err == nil {
		err = a.Sim.Restore(st.Snapshot())
	}
	if err != nil {
		a.fail("load state", err)
		return
	}
	a.Log.Info("state loaded", "path", a.StatePath, "saved_at", st.Timestamp)
	a.acted("State loaded!")
}

// acted shows msg and, when configured, holds the simulation until the next
// key or click.
func (a *App) acted(msg string) {
	a.say(msg)
	if a.Cfg.UI.ConfirmActions {
		a.Waiting = true
		a.Prompt = msg + " Press any key..."
	}
}

func (a *App) say(msg string) {
	a.Message = msg
	a.messageAt = time.Now()
}

func (a *App) fail(op string, err error) {
	a.Log.Error(op+" failed", "error", err)
	a.Banner = fmt.Sprintf("Error: %s: %v", op, err)
	if a.Cfg.UI.ConfirmActions {
		a.Waiting = true
		a.Prompt = "Error! Press any key..."
	}
}
