package metrics

import (
	"math"

	"github.com/san-kum/solsim/internal/sim"
)

// ActivePlanets is the number of planets left at the last observation.
type ActivePlanets struct {
	name  string
	count int
}

func NewActivePlanets() *ActivePlanets {
	return &ActivePlanets{name: "active_planets"}
}

func (a *ActivePlanets) Name() string           { return a.name }
func (a *ActivePlanets) Observe(s sim.Snapshot) { a.count = s.ActivePlanets() }
func (a *ActivePlanets) Value() float64         { return float64(a.count) }
func (a *ActivePlanets) Reset()                 { a.count = 0 }

// BlackHoleRadius is the largest black-hole radius seen.
type BlackHoleRadius struct {
	name string
	max  float64
}

func NewBlackHoleRadius() *BlackHoleRadius {
	return &BlackHoleRadius{name: "black_hole_radius_max"}
}

func (b *BlackHoleRadius) Name() string { return b.name }

func (b *BlackHoleRadius) Observe(s sim.Snapshot) {
	b.max = math.Max(b.max, s.BlackHoleRadius())
}

func (b *BlackHoleRadius) Value() float64 { return b.max }
func (b *BlackHoleRadius) Reset()         { b.max = 0 }

// Collisions counts planet-planet collisions since the run started. The
// simulation keeps running totals, so only the growth is counted and a
// reset mid-run does not lose earlier collisions.
type Collisions struct {
	name  string
	last  int
	total int
}

func NewCollisions() *Collisions {
	return &Collisions{name: "collisions"}
}

func (c *Collisions) Name() string { return c.name }

func (c *Collisions) Observe(s sim.Snapshot) {
	n := s.Stats.Collisions
	if n > c.last {
		c.total += n - c.last
	}
	c.last = n
}

func (c *Collisions) Value() float64 { return float64(c.total) }

func (c *Collisions) Reset() {
	c.last = 0
	c.total = 0
}

// MaxTimeDilation is the strongest time dilation any planet experienced.
type MaxTimeDilation struct {
	name string
	max  float64
}

func NewMaxTimeDilation() *MaxTimeDilation {
	return &MaxTimeDilation{name: "max_time_dilation", max: 1}
}

func (m *MaxTimeDilation) Name() string { return m.name }

func (m *MaxTimeDilation) Observe(s sim.Snapshot) {
	m.max = math.Max(m.max, s.MaxTimeDilation())
}

func (m *MaxTimeDilation) Value() float64 { return m.max }
func (m *MaxTimeDilation) Reset()         { m.max = 1 }

// Absorbed counts planets swallowed by black holes.
type Absorbed struct {
	name  string
	last  int
	total int
}

func NewAbsorbed() *Absorbed {
	return &Absorbed{name: "absorbed"}
}

func (a *Absorbed) Name() string { return a.name }

func (a *Absorbed) Observe(s sim.Snapshot) {
	n := s.Stats.Absorbed
	if n > a.last {
		a.total += n - a.last
	}
	a.last = n
}

func (a *Absorbed) Value() float64 { return float64(a.total) }

func (a *Absorbed) Reset() {
	a.last = 0
	a.total = 0
}

// Default returns a fresh set of every orbital metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewActivePlanets(),
		NewBlackHoleRadius(),
		NewCollisions(),
		NewMaxTimeDilation(),
		NewAbsorbed(),
	}
}
