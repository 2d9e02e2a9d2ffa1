package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/vmath"
)

const (
	DefaultWidth        = 1500
	DefaultHeight       = 1050
	DefaultHeader       = 120
	DefaultFooter       = 100
	DefaultMargin       = 30
	DefaultFPS          = 60
	DefaultSunRadius    = 40.0
	DefaultBlackHole    = 20
	DefaultBlackHoleMin = 10
	DefaultBlackHoleMax = 50
	DefaultSizeStep     = 5
	DefaultStateFile    = "simulation_state.json"
	DefaultLogFile      = "solar_system.log"
)

type Config struct {
	Window  WindowConfig         `yaml:"window"`
	Physics physics.Params       `yaml:"physics"`
	Sun     SunConfig            `yaml:"sun"`
	Sim     SimConfig            `yaml:"sim"`
	Planets []physics.PlanetSpec `yaml:"planets"`
	Storage StorageConfig        `yaml:"storage"`
	Log     LogConfig            `yaml:"log"`
	Journal JournalConfig        `yaml:"journal"`
	Events  EventsConfig         `yaml:"events"`
	Server  ServerConfig         `yaml:"server"`
	UI      UIConfig             `yaml:"ui"`
}

// WindowConfig is the pixel layout the simulation panel is carved out of.
type WindowConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	Header       int `yaml:"header"`
	Footer       int `yaml:"footer"`
	Margin       int `yaml:"margin"`
	ControlStrip int `yaml:"control_strip"` // clicks this close to the bottom never spawn
}

type SunConfig struct {
	Radius float64 `yaml:"radius"`
	Color  string  `yaml:"color"`
}

type SimConfig struct {
	FPS        int       `yaml:"fps"`
	Speed      float64   `yaml:"speed"`
	SpeedSteps []float64 `yaml:"speed_steps"`
	Seed       int64     `yaml:"seed"` // 0 picks a time-based seed
	BlackHole  SizeRange `yaml:"black_hole"`
}

type SizeRange struct {
	Size int `yaml:"size"`
	Min  int `yaml:"min"`
	Max  int `yaml:"max"`
	Step int `yaml:"step"`
}

type StorageConfig struct {
	Dir       string `yaml:"dir"`
	StateFile string `yaml:"state_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to stderr
	JSON  bool   `yaml:"json"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	ConsulAddr  string `yaml:"consul_addr"` // empty disables registration
	ServiceName string `yaml:"service_name"`
	ServiceID   string `yaml:"service_id"`
}

type UIConfig struct {
	ConfirmActions bool   `yaml:"confirm_actions"`
	Theme          string `yaml:"theme"`
}

// DefaultPlanets is the solar-system catalog, innermost first.
func DefaultPlanets() []physics.PlanetSpec {
	return []physics.PlanetSpec{
		{Name: "Mercury", Distance: 65, Radius: 5, Color: "#A9A9A9", Period: 0.24},
		{Name: "Venus", Distance: 95, Radius: 10, Color: "#FFC649", Period: 0.62},
		{Name: "Earth", Distance: 130, Radius: 12, Color: "#6495ED", Period: 1.0},
		{Name: "Mars", Distance: 165, Radius: 8, Color: "#BC2732", Period: 1.88},
		{Name: "Jupiter", Distance: 220, Radius: 25, Color: "#964B00", Period: 11.86},
		{Name: "Saturn", Distance: 280, Radius: 20, Color: "#FFC649", Period: 29.46, Rings: true, RingHex: "#8B4513"},
		{Name: "Uranus", Distance: 330, Radius: 15, Color: "#ADD8E6", Period: 84.01},
		{Name: "Neptune", Distance: 380, Radius: 15, Color: "#00008B", Period: 164.79},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:        DefaultWidth,
			Height:       DefaultHeight,
			Header:       DefaultHeader,
			Footer:       DefaultFooter,
			Margin:       DefaultMargin,
			ControlStrip: DefaultFooter,
		},
		Physics: physics.DefaultParams(),
		Sun:     SunConfig{Radius: DefaultSunRadius, Color: "#FFFF00"},
		Sim: SimConfig{
			FPS:        DefaultFPS,
			Speed:      1.0,
			SpeedSteps: []float64{0.5, 1, 2, 5},
			BlackHole: SizeRange{
				Size: DefaultBlackHole,
				Min:  DefaultBlackHoleMin,
				Max:  DefaultBlackHoleMax,
				Step: DefaultSizeStep,
			},
		},
		Planets: DefaultPlanets(),
		Storage: StorageConfig{Dir: ".solsim", StateFile: DefaultStateFile},
		Log:     LogConfig{Level: "info", File: DefaultLogFile},
		Journal: JournalConfig{Path: "solsim.db"},
		Events:  EventsConfig{Addr: "localhost:6379", Channel: "solsim:events"},
		Server:  ServerConfig{Addr: ":8080", ServiceName: "solsim", ServiceID: "solsim-1"},
		UI:      UIConfig{Theme: "default"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Sim.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.Sim.FPS)
	}
	if c.Sim.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %f", c.Sim.Speed)
	}
	for _, s := range c.Sim.SpeedSteps {
		if s <= 0 {
			return fmt.Errorf("speed step must be positive, got %f", s)
		}
	}
	if len(c.Planets) == 0 {
		return fmt.Errorf("at least one planet is required")
	}
	for _, p := range c.Planets {
		if p.Distance <= 0 || p.Radius <= 0 {
			return fmt.Errorf("planet %q: distance and radius must be positive", p.Name)
		}
	}
	bh := c.Sim.BlackHole
	if bh.Min <= 0 || bh.Min > bh.Max {
		return fmt.Errorf("black hole size range [%d,%d] is invalid", bh.Min, bh.Max)
	}
	if bh.Step <= 0 {
		return fmt.Errorf("black hole size step must be positive, got %d", bh.Step)
	}
	if c.Sun.Radius <= 0 {
		return fmt.Errorf("sun radius must be positive, got %f", c.Sun.Radius)
	}
	if c.Window.Width <= 2*c.Window.Margin || c.Window.Height <= c.Window.Header+c.Window.Footer+2*c.Window.Margin {
		return fmt.Errorf("window %dx%d leaves no room for the panel", c.Window.Width, c.Window.Height)
	}
	return nil
}

// Bounds is the simulation panel inside the window chrome.
func (c *Config) Bounds() physics.Bounds {
	w := c.Window
	return physics.Bounds{
		Left:   float64(w.Margin),
		Top:    float64(w.Header + w.Margin),
		Right:  float64(w.Width - w.Margin),
		Bottom: float64(w.Height - w.Footer - w.Margin),
	}
}

// Center is the panel center with integer pixel coordinates.
func (c *Config) Center() vmath.Vec2 {
	b := c.Bounds()
	return vmath.V(b.Left+float64(int(b.Width())/2), b.Top+float64(int(b.Height())/2))
}

// InControlStrip reports whether a window y coordinate falls in the button area.
func (c *Config) InControlStrip(y float64) bool {
	return y >= float64(c.Window.Height-c.Window.ControlStrip)
}
