package sim

import (
	"math"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/vmath"
)

// SetSpeed changes the speed multiplier applied to every orbit.
func (s *Simulation) SetSpeed(factor float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return ErrInvalidSpeed
	}
	s.speed = factor
	s.notify(Event{Kind: EventSpeed, Tick: s.tick, Value: factor})
	return nil
}

// CreateBlackHole spawns a black hole of the current spawn size at (x, y),
// replacing any existing one. Ejected planets become ejectable again.
func (s *Simulation) CreateBlackHole(x, y float64) error {
	pos := vmath.V(x, y)
	if !pos.IsFinite() {
		return ErrInvalidPosition
	}
	s.blackHole = physics.NewBlackHole(pos, float64(s.spawnSize), s.params, s.rng)
	for _, p := range s.planets {
		p.Ejected = false
	}
	s.notify(Event{Kind: EventBlackHoleCreated, Tick: s.tick, X: x, Y: y, Value: float64(s.spawnSize)})
	return nil
}

// ChangeBlackHoleSize moves the spawn size by delta within the configured
// range and returns the new size. An existing black hole is unaffected.
func (s *Simulation) ChangeBlackHoleSize(delta int) int {
	s.spawnSize = s.clampSize(s.spawnSize + delta)
	s.notify(Event{Kind: EventBlackHoleSize, Tick: s.tick, Value: float64(s.spawnSize)})
	return s.spawnSize
}

func (s *Simulation) clampSize(size int) int {
	r := s.cfg.Sim.BlackHole
	return int(vmath.Clamp(float64(size), float64(r.Min), float64(r.Max)))
}

// ResetBlackHole removes the black hole. Planets mid-spiral drop back into
// normal orbit.
func (s *Simulation) ResetBlackHole() {
	s.blackHole = nil
	s.notify(Event{Kind: EventBlackHoleReset, Tick: s.tick})
}

// Reset removes the black hole and returns the sun and every planet to
// their construction state. Speed and spawn size are kept.
func (s *Simulation) Reset() {
	s.blackHole = nil
	s.sun.Reset()
	for _, p := range s.planets {
		p.Reset()
	}
	s.stats = Stats{}
	s.notify(Event{Kind: EventReset, Tick: s.tick})
}
