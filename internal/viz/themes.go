package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the orrery and the TUI chrome
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color

	Sun        lipgloss.Color
	Glow       lipgloss.Color
	Horizon    lipgloss.Color
	Effect     lipgloss.Color
	Flash      lipgloss.Color
	Spiral     lipgloss.Color
	Orbit      lipgloss.Color
	Monochrome bool // ignore planet catalog colors
}

// Available themes
var (
	ThemeDefault = Theme{
		Name:       "default",
		Primary:    lipgloss.Color("#ffd700"), // Sun yellow
		Secondary:  lipgloss.Color("#87cefa"),
		Accent:     lipgloss.Color("#ff6b6b"),
		Background: lipgloss.Color("#000010"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666688"),
		Success:    lipgloss.Color("#00ff88"),
		Warning:    lipgloss.Color("#ffaa00"),
		Error:      lipgloss.Color("#ff4444"),
		Sun:        lipgloss.Color("#ffd700"),
		Glow:       lipgloss.Color("#ff8c00"),
		Horizon:    lipgloss.Color("#9400d3"),
		Effect:     lipgloss.Color("#3a1450"),
		Flash:      lipgloss.Color("#ffffff"),
		Spiral:     lipgloss.Color("#ff4500"),
		Orbit:      lipgloss.Color("#222233"),
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Primary:    lipgloss.Color("#00ff00"), // Green phosphor
		Secondary:  lipgloss.Color("#00cc00"),
		Accent:     lipgloss.Color("#88ff88"),
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Success:    lipgloss.Color("#88ff88"),
		Warning:    lipgloss.Color("#ffff00"),
		Error:      lipgloss.Color("#ff0000"),
		Sun:        lipgloss.Color("#88ff88"),
		Glow:       lipgloss.Color("#00cc00"),
		Horizon:    lipgloss.Color("#00ff00"),
		Effect:     lipgloss.Color("#003300"),
		Flash:      lipgloss.Color("#ccffcc"),
		Spiral:     lipgloss.Color("#88ff88"),
		Orbit:      lipgloss.Color("#002200"),
		Monochrome: true,
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Primary:    lipgloss.Color("#ffffff"),
		Secondary:  lipgloss.Color("#cccccc"),
		Accent:     lipgloss.Color("#0088ff"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Success:    lipgloss.Color("#00ff00"),
		Warning:    lipgloss.Color("#ffaa00"),
		Error:      lipgloss.Color("#ff0000"),
		Sun:        lipgloss.Color("#ffffff"),
		Glow:       lipgloss.Color("#888888"),
		Horizon:    lipgloss.Color("#0088ff"),
		Effect:     lipgloss.Color("#222222"),
		Flash:      lipgloss.Color("#ffffff"),
		Spiral:     lipgloss.Color("#cccccc"),
		Orbit:      lipgloss.Color("#1a1a1a"),
		Monochrome: true,
	}

	ThemeSunset = Theme{
		Name:       "sunset",
		Primary:    lipgloss.Color("#ff6b6b"), // Coral
		Secondary:  lipgloss.Color("#feca57"),
		Accent:     lipgloss.Color("#ff9ff3"),
		Background: lipgloss.Color("#2d1b2e"),
		Text:       lipgloss.Color("#fff5f5"),
		Muted:      lipgloss.Color("#8b6b8c"),
		Success:    lipgloss.Color("#5fd068"),
		Warning:    lipgloss.Color("#ffc048"),
		Error:      lipgloss.Color("#ff4757"),
		Sun:        lipgloss.Color("#feca57"),
		Glow:       lipgloss.Color("#ff6b6b"),
		Horizon:    lipgloss.Color("#ff9ff3"),
		Effect:     lipgloss.Color("#4b2b4e"),
		Flash:      lipgloss.Color("#fff5f5"),
		Spiral:     lipgloss.Color("#ff4757"),
		Orbit:      lipgloss.Color("#3d2b3e"),
	}

	// All available themes
	Themes = []Theme{
		ThemeDefault,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the default theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDefault
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDefault
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// PlanetColor is the color a planet is drawn in.
func (t Theme) PlanetColor(hex string) lipgloss.Color {
	if t.Monochrome || hex == "" {
		return t.Secondary
	}
	return lipgloss.Color(hex)
}
