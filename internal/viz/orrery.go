package viz

import (
	"math"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/vmath"
)

// Viewport maps the simulation panel onto a canvas of Cols x Rows terminal
// cells. Braille sub-pixels are close to square, so one uniform scale is used
// and the panel is centered.
type Viewport struct {
	Bounds     physics.Bounds
	Cols, Rows int
}

// Scale is the number of sub-pixels per panel unit.
func (v Viewport) Scale() float64 {
	if v.Bounds.Width() <= 0 || v.Bounds.Height() <= 0 {
		return 0
	}
	sx := float64(v.Cols*2) / v.Bounds.Width()
	sy := float64(v.Rows*4) / v.Bounds.Height()
	return math.Min(sx, sy)
}

func (v Viewport) origin() (float64, float64) {
	s := v.Scale()
	ox := (float64(v.Cols*2) - v.Bounds.Width()*s) / 2
	oy := (float64(v.Rows*4) - v.Bounds.Height()*s) / 2
	return ox, oy
}

// ToCanvas converts a panel position to sub-pixel coordinates.
func (v Viewport) ToCanvas(p vmath.Vec2) (int, int) {
	s := v.Scale()
	ox, oy := v.origin()
	return int(math.Round(ox + (p.X-v.Bounds.Left)*s)), int(math.Round(oy + (p.Y-v.Bounds.Top)*s))
}

// ToPanel converts a terminal cell to the panel position at its center.
func (v Viewport) ToPanel(col, row int) vmath.Vec2 {
	s := v.Scale()
	if s == 0 {
		return v.Bounds.Center()
	}
	ox, oy := v.origin()
	x := (float64(col*2)+1-ox)/s + v.Bounds.Left
	y := (float64(row*4)+2-oy)/s + v.Bounds.Top
	return vmath.V(x, y)
}

// Contains reports whether the cell lies over the panel.
func (v Viewport) Contains(col, row int) bool {
	if col < 0 || row < 0 || col >= v.Cols || row >= v.Rows {
		return false
	}
	p := v.ToPanel(col, row)
	return p.X >= v.Bounds.Left && p.X <= v.Bounds.Right && p.Y >= v.Bounds.Top && p.Y <= v.Bounds.Bottom
}

func (v Viewport) radius(r float64) int {
	return int(math.Round(r * v.Scale()))
}

// Render draws a snapshot: orbit guides, the sun and its glow, the black hole
// with its event horizon and reach, spiralling planets, planets, rings and
// collision flashes.
func Render(snap sim.Snapshot, v Viewport, theme Theme) *Canvas {
	c := NewCanvas(v.Cols, v.Rows)
	if v.Scale() == 0 {
		return c
	}

	center := v.Bounds.Center()
	cx, cy := v.ToCanvas(center)
	for _, p := range snap.Planets {
		if p.Active && !p.Ejected {
			c.DrawCircle(cx, cy, v.radius(p.Distance), theme.Orbit)
		}
	}

	if bh := snap.BlackHole; bh != nil {
		x, y := v.ToCanvas(vmath.V(bh.X, bh.Y))
		c.DrawCircle(x, y, v.radius(bh.EffectRadius), theme.Effect)
		c.DrawCircle(x, y, v.radius(bh.EventHorizon), theme.Horizon)
	}

	if snap.Sun.Active {
		x, y := v.ToCanvas(vmath.V(snap.Sun.X, snap.Sun.Y))
		c.DrawCircle(x, y, v.radius(snap.Sun.GlowRadius), theme.Glow)
		c.FillCircle(x, y, v.radius(snap.Sun.Radius), theme.Sun)
	}

	for _, p := range snap.Planets {
		if !p.Active || p.Absorbing {
			continue
		}
		x, y := v.ToCanvas(vmath.V(p.X, p.Y))
		color := theme.PlanetColor(p.Color)
		if p.Flash > 0.5 {
			color = theme.Flash
		}
		c.FillCircle(x, y, v.radius(p.Radius), color)
		if p.Rings {
			c.DrawCircle(x, y, v.radius(p.Radius*1.8), theme.PlanetColor(p.RingColor))
		}
	}

	for _, p := range snap.Planets {
		if p.CollisionTicks > 0 && p.CollisionPos != nil {
			x, y := v.ToCanvas(*p.CollisionPos)
			r := v.radius(float64(p.CollisionTicks))
			c.DrawCircle(x, y, r, theme.Flash)
		}
	}

	if bh := snap.BlackHole; bh != nil {
		for _, s := range bh.Spirals {
			x, y := v.ToCanvas(vmath.V(s.X, s.Y))
			c.FillCircle(x, y, v.radius(s.Radius), theme.Spiral)
		}
		x, y := v.ToCanvas(vmath.V(bh.X, bh.Y))
		c.FillCircle(x, y, v.radius(bh.Radius), theme.Horizon)
	}

	return c
}
