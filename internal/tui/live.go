package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/viz"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the orrery on a plain terminal while a headless run
// progresses. Frames arriving faster than frameRate are dropped.
type LiveRenderer struct {
	out       io.Writer
	frameRate int
	lastFrame time.Time
	viewport  viz.Viewport
	theme     viz.Theme
	styles    viz.Styles
	lastEvent string
	now       func() time.Time
}

func NewLiveRenderer(out io.Writer, bounds physics.Bounds, cols, rows, frameRate int, theme viz.Theme) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		out:       out,
		frameRate: frameRate,
		viewport:  viz.Viewport{Bounds: bounds, Cols: cols, Rows: rows},
		theme:     theme,
		styles:    viz.NewStyles(theme),
		now:       time.Now,
	}
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

// OnEvent remembers the latest event for the status line.
func (r *LiveRenderer) OnEvent(e sim.Event) { r.lastEvent = e.Message() }

// OnFrame draws snap unless the previous frame was drawn too recently. It
// reports whether a frame was written.
func (r *LiveRenderer) OnFrame(snap sim.Snapshot) bool {
	now := r.now()
	if !r.lastFrame.IsZero() && now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return false
	}
	r.lastFrame = now

	fmt.Fprint(r.out, clearScreen)
	fmt.Fprint(r.out, viz.Render(snap, r.viewport, r.theme).String())
	fmt.Fprintf(r.out, "%s  %s  %s\n",
		r.styles.MetricValue.Render(fmt.Sprintf("tick %d", snap.Tick)),
		r.styles.MetricLabel.Render(fmt.Sprintf("planets %d/%d", snap.ActivePlanets(), len(snap.Planets))),
		r.styles.Message.Render(r.lastEvent))
	return true
}
