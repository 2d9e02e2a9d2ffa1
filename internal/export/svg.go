package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/viz"
)

const background = "#0a0a0a"

// Braille dot-to-bit mapping
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasToSVG converts a Braille canvas to SVG format, one dot per set
// sub-pixel in its cell's color.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			fill := fillOf(canvas.Colors[row][col])

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, fill)
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SnapshotToSVG draws the system as vector shapes in panel coordinates.
func SnapshotToSVG(snap sim.Snapshot, bounds physics.Bounds, theme viz.Theme) string {
	center := bounds.Center()

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="%.0f %.0f %.0f %.0f">
<rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="%s"/>
`, bounds.Width(), bounds.Height(), bounds.Left, bounds.Top, bounds.Width(), bounds.Height(),
		bounds.Left, bounds.Top, bounds.Width(), bounds.Height(), background)

	sb.WriteString(`<g fill="none" stroke-width="1">` + "\n")
	for _, p := range snap.Planets {
		if p.Active && !p.Ejected {
			circle(&sb, center.X, center.Y, p.Distance, "none", fillOf(theme.Orbit), 0.4)
		}
	}
	sb.WriteString("</g>\n")

	if bh := snap.BlackHole; bh != nil {
		circle(&sb, bh.X, bh.Y, bh.EffectRadius, "none", fillOf(theme.Effect), 0.3)
		circle(&sb, bh.X, bh.Y, bh.EventHorizon, "none", fillOf(theme.Horizon), 0.8)
	}

	if snap.Sun.Active {
		circle(&sb, snap.Sun.X, snap.Sun.Y, snap.Sun.GlowRadius, fillOf(theme.Glow), "none", 0.25)
		circle(&sb, snap.Sun.X, snap.Sun.Y, snap.Sun.Radius, fillOf(theme.Sun), "none", 1)
	}

	for _, p := range snap.Planets {
		if !p.Active {
			continue
		}
		fill := fillOf(theme.PlanetColor(p.Color))
		if p.Flash > 0.5 {
			fill = fillOf(theme.Flash)
		}
		if p.Rings {
			ring := p.RingColor
			if ring == "" || theme.Monochrome {
				ring = fill
			}
			circle(&sb, p.X, p.Y, p.Radius*1.8, "none", ring, 0.8)
		}
		circle(&sb, p.X, p.Y, p.Radius, fill, "none", 1)
	}

	for _, p := range snap.Planets {
		if p.CollisionTicks > 0 && p.CollisionPos != nil {
			circle(&sb, p.CollisionPos.X, p.CollisionPos.Y, 10, "none", fillOf(theme.Flash), 0.6)
		}
	}

	if bh := snap.BlackHole; bh != nil {
		for _, s := range bh.Spirals {
			circle(&sb, s.X, s.Y, math.Max(1, s.Radius), fillOf(theme.Spiral), "none", 1-s.Progress/2)
		}
		circle(&sb, bh.X, bh.Y, bh.Radius, "#000000", fillOf(theme.Horizon), 1)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG draws values against their index as a single line.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(values) - 1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor)

	for i, v := range values {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func circle(sb *strings.Builder, cx, cy, r float64, fill, stroke string, opacity float64) {
	fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s" opacity="%.2f"/>
`, cx, cy, r, fill, stroke, opacity)
}

// fillOf maps a terminal color to an SVG color. ANSI palette indices have no
// fixed RGB value and fall back to white.
func fillOf(c lipgloss.Color) string {
	s := string(c)
	if strings.HasPrefix(s, "#") {
		return s
	}
	return "#ffffff"
}
