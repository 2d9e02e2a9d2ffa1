package gui

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/viz"
)

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	snap := a.Sim.Snapshot()
	a.drawStars()
	a.drawHeader(snap)
	a.drawOrbits(snap)
	if snap.BlackHole != nil {
		a.drawBlackHole(snap.BlackHole)
	}
	a.drawSun(snap.Sun)
	for _, p := range snap.Planets {
		a.drawPlanet(p)
	}
	a.drawIndicators(snap)
	a.drawButtons()
	a.drawMessages()

	rl.EndDrawing()
}

func (a *App) drawStars() {
	w := float32(a.Cfg.Window.Width)
	for i := range a.Stars {
		s := &a.Stars[i]
		rl.DrawCircleV(rl.NewVector2(s.x, s.y), s.size, rl.White)
		s.x += s.speed
		if s.x > w {
			s.x = 0
		}
	}
}

func (a *App) drawHeader(snap sim.Snapshot) {
	w := int32(a.Cfg.Window.Width)
	rl.DrawRectangle(0, 0, w, int32(a.Cfg.Window.Header), ColHeader)
	rl.DrawText("solsim", 10, 10, 32, ColText)
	rl.DrawText("A planetary system with a black hole, collisions and time dilation.", 10, 55, 20, ColInfo)
	rl.DrawText("Click the panel to spawn a black hole. Keys: 1-4 speed, +/- size, B reset hole, R reset, S save, L load.", 10, 85, 18, ColTextDim)

	stats := fmt.Sprintf("tick %d   planets %d/%d   collisions %d   absorbed %d",
		snap.Tick, snap.ActivePlanets(), len(snap.Planets), snap.Stats.Collisions+snap.Stats.SunCollisions, snap.Stats.Absorbed)
	rl.DrawText(stats, w-rl.MeasureText(stats, 18)-20, 15, 18, ColInfo)
}

// drawOrbits draws one guide per active planet. With a black hole present the
// guides stretch towards it.
func (a *App) drawOrbits(snap sim.Snapshot) {
	c := a.Cfg.Center()
	cx, cy := int32(c.X), int32(c.Y)
	for _, p := range snap.Planets {
		if !p.Active || p.Ejected {
			continue
		}
		if bh := snap.BlackHole; bh != nil {
			ra := float32(p.Distance + math.Abs(bh.X-c.X)*0.2)
			rb := float32(p.Distance + math.Abs(bh.Y-c.Y)*0.2)
			rl.DrawEllipseLines(cx, cy, ra, rb, ColOrbit)
			continue
		}
		rl.DrawCircleLines(cx, cy, float32(p.Distance), ColOrbit)
	}
}

func (a *App) drawSun(s sim.SunState) {
	if !s.Active {
		return
	}
	pos := rl.NewVector2(float32(s.X), float32(s.Y))
	pulse := float32(math.Sin(a.frame*0.05) * 8)
	for i := 0; i < 8; i++ {
		alpha := float32(180-i*20) / 255
		rl.DrawCircleV(pos, float32(s.GlowRadius)+pulse-float32(i*4), rl.Fade(ColSunGlow, alpha*0.4))
	}
	rl.DrawCircleV(pos, float32(s.Radius), ColSunCore)
}

func (a *App) drawBlackHole(bh *sim.BlackHoleState) {
	pos := rl.NewVector2(float32(bh.X), float32(bh.Y))
	pulse := float32(math.Sin(a.frame*0.07) * 5)

	rl.DrawCircleLines(int32(bh.X), int32(bh.Y), float32(bh.EffectRadius), rl.Fade(ColHoleGlow, 0.25))
	for i := 0; i < 4; i++ {
		alpha := float32(120-i*30) / 255
		rl.DrawCircleV(pos, float32(bh.Radius)+18-float32(i*5)+pulse, rl.Fade(ColHoleGlow, alpha))
	}
	for i := 0; i < 12; i++ {
		angle := a.frame*0.07 + float64(i)*0.5
		r := bh.Radius + 22 + 6*math.Sin(angle*2)
		p := rl.NewVector2(float32(bh.X+r*math.Cos(angle)), float32(bh.Y+r*math.Sin(angle)))
		rl.DrawCircleV(p, 2, ColAccretion)
	}
	rl.DrawCircleLines(int32(bh.X), int32(bh.Y), float32(bh.EventHorizon), rl.Fade(ColHoleGlow, 0.6))
	rl.DrawCircleV(pos, float32(bh.Radius), rl.Black)

	for _, s := range bh.Spirals {
		r := float32(s.Radius)
		if r < 1 {
			r = 1
		}
		rl.DrawEllipse(int32(s.X), int32(s.Y), r*float32(s.Stretch), r, lighten(ColSunGlow, s.Progress))
	}
}

func (a *App) drawPlanet(p sim.PlanetState) {
	if !p.Active || p.Absorbing {
		if p.CollisionTicks > 0 && p.CollisionPos != nil {
			a.drawImpact(p)
		}
		return
	}

	pos := rl.NewVector2(float32(p.X), float32(p.Y))
	base := hexColor(p.Color)
	for i := int(p.Radius); i > 0; i-- {
		rl.DrawCircleV(pos, float32(i), lighten(base, (p.Radius-float64(i))*8/255))
	}

	if p.Rings {
		tilt := float32(math.Sin(a.frame/24) * 0.2)
		rl.DrawEllipseLines(int32(p.X), int32(p.Y), float32(p.Radius*2), float32(p.Radius*0.5)*(1+tilt), hexColor(p.RingColor))
	}

	name := p.Name
	rl.DrawText(name, int32(p.X)-rl.MeasureText(name, 16)/2, int32(p.Y+p.Radius+5), 16, ColText)

	if p.Flash > 0 {
		rl.DrawCircleV(pos, float32(p.Radius+5), rl.Fade(ColFlash, float32(p.Flash)))
	}
	if p.CollisionTicks > 0 && p.CollisionPos != nil {
		a.drawImpact(p)
	}
	if p.TimeDilation > 1.1 {
		label := fmt.Sprintf("T×%.1f", p.TimeDilation)
		rl.DrawText(label, int32(p.X)-rl.MeasureText(label, 14)/2, int32(p.Y-p.Radius-15), 14, ColError)
	}
}

// drawImpact is the expanding burst at a collision point.
func (a *App) drawImpact(p sim.PlanetState) {
	progress := 1 - float64(p.CollisionTicks)/20
	maxRadius := p.Radius*4 + 20
	r := float32(maxRadius * progress)
	alpha := float32(1 - progress)
	pos := rl.NewVector2(float32(p.CollisionPos.X), float32(p.CollisionPos.Y))
	rl.DrawCircleV(pos, r, rl.Fade(rl.NewColor(255, 220, 0, 255), alpha))
	rl.DrawCircleV(pos, r*0.6, rl.Fade(rl.NewColor(255, 80, 0, 255), alpha*0.7))
}

func (a *App) drawIndicators(snap sim.Snapshot) {
	w := int32(a.Cfg.Window.Width)
	speed := fmt.Sprintf("Speed: %gx", snap.Speed)
	size := fmt.Sprintf("Black Hole Size: %d", snap.SpawnSize)
	y := int32(buttonY(a.Cfg.Window.Height, 2)) - 20
	rl.DrawText(speed, w-rl.MeasureText(speed, 28)-20, y, 28, ColText)
	rl.DrawText(size, w-rl.MeasureText(size, 20)-20, y-30, 20, ColText)
	if d := snap.MaxTimeDilation(); d > 1.01 {
		dil := fmt.Sprintf("Max dilation: %.2fx", d)
		rl.DrawText(dil, w-rl.MeasureText(dil, 20)-20, y-60, 20, ColError)
	}
}

func (a *App) drawButtons() {
	mouse := rl.GetMousePosition()
	for _, b := range a.Buttons {
		col := ColButton
		if rl.CheckCollisionPointRec(mouse, b.Rect) {
			col = ColHover
		}
		rl.DrawRectangleRounded(b.Rect, 0.3, 6, col)
		tw := rl.MeasureText(b.Label, 20)
		rl.DrawText(b.Label, int32(b.Rect.X+b.Rect.Width/2)-tw/2, int32(b.Rect.Y+b.Rect.Height/2)-10, 20, ColText)
	}
}

func (a *App) drawMessages() {
	w, h := int32(a.Cfg.Window.Width), int32(a.Cfg.Window.Height)
	if a.Message != "" && time.Since(a.messageAt) < messageTime {
		rl.DrawText(a.Message, 620, int32(buttonY(a.Cfg.Window.Height, 1))+5, 20, ColInfo)
	}
	if a.Banner != "" {
		rl.DrawText(a.Banner, 10, h-120, 22, ColError)
	}
	if a.Waiting {
		tw := rl.MeasureText(a.Prompt, 28)
		rl.DrawRectangle(w/2-tw/2-20, h/2-20, tw+40, 68, rl.Fade(rl.Black, 0.8))
		rl.DrawText(a.Prompt, w/2-tw/2, h/2, 28, ColPrompt)
	}
}

func (a *App) drawCritical() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.White)
	msg := fmt.Sprintf("Critical error: %v", a.Critical)
	rl.DrawText(msg, 10, int32(a.Cfg.Window.Height/2), 32, rl.Red)
	rl.EndDrawing()
}

func hexColor(hex string) rl.Color {
	r, g, b, _ := viz.ParseHex(hex)
	return rl.NewColor(r, g, b, 255)
}

// lighten moves c towards white by t in [0,1].
func lighten(c rl.Color, t float64) rl.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(v uint8) uint8 { return uint8(float64(v) + (255-float64(v))*t) }
	return rl.NewColor(mix(c.R), mix(c.G), mix(c.B), c.A)
}
