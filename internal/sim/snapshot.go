package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/vmath"
)

func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:      s.tick,
		Speed:     s.speed,
		SpawnSize: s.spawnSize,
		Sun: SunState{
			X:          s.sun.Pos.X,
			Y:          s.sun.Pos.Y,
			Radius:     s.sun.BaseRadius,
			GlowRadius: s.sun.GlowRadius,
			Active:     s.sun.Active,
		},
		Planets: make([]PlanetState, len(s.planets)),
		Stats:   s.stats,
	}

	for i, p := range s.planets {
		pos := p.Position()
		ps := PlanetState{
			Name:           p.Name(),
			Color:          p.Spec.Color,
			Rings:          p.Spec.Rings,
			RingColor:      p.Spec.RingHex,
			X:              pos.X,
			Y:              pos.Y,
			Radius:         p.Radius,
			Distance:       p.Distance,
			Angle:          p.Angle,
			Active:         p.Active,
			Ejected:        p.Ejected,
			Absorbing:      s.blackHole.Absorbing(p),
			TimeDilation:   p.TimeDilation,
			Flash:          p.CollisionFlash,
			CollisionTicks: p.CollisionTicks,
		}
		if p.CollisionPos != nil {
			at := *p.CollisionPos
			ps.CollisionPos = &at
		}
		snap.Planets[i] = ps
	}

	if bh := s.blackHole; bh != nil {
		bs := &BlackHoleState{
			X:            bh.Pos.X,
			Y:            bh.Pos.Y,
			Radius:       bh.Radius,
			Mass:         bh.Mass,
			EventHorizon: bh.EventHorizon,
			EffectRadius: bh.EffectRadius,
		}
		for _, a := range bh.Animations {
			if a.Progress >= 1 {
				continue
			}
			bs.Spirals = append(bs.Spirals, SpiralState{
				Planet:   a.Planet.Name(),
				X:        a.Pos.X,
				Y:        a.Pos.Y,
				Radius:   a.Planet.Radius * (1 - a.Progress),
				Progress: a.Progress,
				Stretch:  a.Stretch,
			})
		}
		snap.BlackHole = bs
	}
	return snap
}

// Restore applies the persisted subset of a snapshot: sun activity and
// position, black hole existence, position and radius, and each planet's
// distance, angle and activity in order. As with a fresh black hole, ejected
// planets become ejectable again. Nothing changes if the snapshot is
// rejected.
func (s *Simulation) Restore(snap Snapshot) error {
	if len(snap.Planets) != len(s.planets) {
		return fmt.Errorf("%w: have %d, snapshot has %d", ErrPlanetCount, len(s.planets), len(snap.Planets))
	}
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	s.sun.Active = snap.Sun.Active
	s.sun.Pos = vmath.V(snap.Sun.X, snap.Sun.Y)

	s.blackHole = nil
	if bh := snap.BlackHole; bh != nil {
		s.blackHole = physics.NewBlackHole(vmath.V(bh.X, bh.Y), bh.Radius, s.params, s.rng)
	}

	for i, ps := range snap.Planets {
		p := s.planets[i]
		p.Distance = ps.Distance
		p.Angle = ps.Angle
		p.Active = ps.Active
		p.Ejected = false
	}

	s.notify(Event{Kind: EventRestored, Tick: s.tick})
	return nil
}

func validateSnapshot(snap Snapshot) error {
	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}

	if !finite(snap.Sun.X, snap.Sun.Y) {
		return fmt.Errorf("%w: sun position", ErrInvalidSnapshot)
	}
	if bh := snap.BlackHole; bh != nil && (!finite(bh.X, bh.Y, bh.Radius) || bh.Radius <= 0) {
		return fmt.Errorf("%w: black hole", ErrInvalidSnapshot)
	}
	for i, p := range snap.Planets {
		if !finite(p.Distance, p.Angle) || p.Distance <= 0 {
			return fmt.Errorf("%w: planet %d", ErrInvalidSnapshot, i)
		}
	}
	return nil
}
