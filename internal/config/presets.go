package config

import "sort"

// Preset tweaks a default configuration into a named scenario.
type Preset struct {
	Description string
	Apply       func(*Config)
}

var Presets = map[string]Preset{
	"classic": {
		Description: "the eight planets around a 40px sun",
		Apply:       func(*Config) {},
	},
	"crowded": {
		Description: "orbits squeezed together so planets collide often",
		Apply: func(c *Config) {
			for i := range c.Planets {
				c.Planets[i].Distance = 70 + float64(i)*22
			}
		},
	},
	"inner": {
		Description: "only the rocky planets, at double speed",
		Apply: func(c *Config) {
			c.Planets = c.Planets[:4]
			c.Sim.Speed = 2
		},
	},
	"heavy": {
		Description: "large black holes and strong pull",
		Apply: func(c *Config) {
			c.Sim.BlackHole = SizeRange{Size: 40, Min: 20, Max: 80, Step: 10}
			c.Physics.PullStrength = 1.0
			c.Physics.MaxPullForce = 4.0
		},
	},
}

// GetPreset returns a fresh default config with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
