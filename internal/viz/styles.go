package viz

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles of the TUI chrome, derived from a theme.
type Styles struct {
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Running     lipgloss.Style
	Paused      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	KeyHint     lipgloss.Style
	Message     lipgloss.Style
	Banner      lipgloss.Style
	Critical    lipgloss.Style

	SparkHigh lipgloss.Style
	SparkMid  lipgloss.Style
	SparkLow  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Subtle:      lipgloss.NewStyle().Foreground(t.Muted),
		Running:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:      lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		MetricLabel: lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		MetricValue: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		KeyHint:     lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		Message:     lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(t.Error).
			Padding(0, 1),
		Critical: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(t.Error).
			Padding(1, 4),
		SparkHigh: lipgloss.NewStyle().Foreground(t.Success),
		SparkMid:  lipgloss.NewStyle().Foreground(t.Warning),
		SparkLow:  lipgloss.NewStyle().Foreground(t.Error),
	}
}

// GradientText creates a gradient effect on text using color interpolation
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	if len(text) == 0 {
		return ""
	}

	sr, sg, sb, _ := ParseHex(string(startColor))
	er, eg, eb, _ := ParseHex(string(endColor))

	var result strings.Builder
	runes := []rune(text)
	n := len(runes)

	for i, c := range runes {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		r := lerp(sr, er, t)
		g := lerp(sg, eg, t)
		b := lerp(sb, eb, t)

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(r, g, b)))
		result.WriteString(style.Render(string(c)))
	}

	return result.String()
}

// ProgressBar renders a bar filled to percent, colored by how full it is.
func (s Styles) ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent > 0.8 {
		return s.SparkLow.Render(bar)
	} else if percent > 0.4 {
		return s.SparkMid.Render(bar)
	}
	return s.SparkHigh.Render(bar)
}

// SparklineChart renders a mini sparkline from the last width values.
func (s Styles) SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	rng := max - min
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		norm := (v - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}

		c := chars[idx]
		if norm > 0.7 {
			result.WriteString(s.SparkHigh.Render(string(c)))
		} else if norm > 0.3 {
			result.WriteString(s.SparkMid.Render(string(c)))
		} else {
			result.WriteString(s.SparkLow.Render(string(c)))
		}
	}

	return result.String()
}

// Separator is a thin rule with a diamond in the middle.
func (s Styles) Separator(width int) string {
	if width < 8 {
		return s.Subtle.Render(strings.Repeat("─", width))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return s.Subtle.Render(left + " ◆ " + right)
}

// ParseHex decodes a "#rrggbb" color. ok is false for anything else, in
// which case white is returned.
func ParseHex(hex string) (r, g, b uint8, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 255, 255, 255, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

func lerp(a, b uint8, t float64) int {
	return int(float64(a) + t*(float64(b)-float64(a)))
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
