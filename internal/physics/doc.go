// Package physics holds the bodies of the orrery and the rules they interact by.
//
// The model is a per-tick toy, not an integrator: planets advance along
// circular orbits around the panel center while the interaction rules nudge
// their orbit centers and velocities.
//
//   - [Sun]: central mass; pulls planets and can be swallowed by a black hole
//   - [Planet]: orbiting body with collision and ejection state
//   - [BlackHole]: user-spawned sink that ejects, pulls and absorbs bodies
//
// # Tick Order
//
// A tick is driven by the sim package. For each tick it calls, in order:
//
//	p.Update(speed, bh, bounds, rng)   // every planet
//	bh.AdvanceAbsorptions()
//	bh.AffectSun(sun); sun.CheckBlackHoleInteraction(bh)
//	sun.AffectPlanets(planets, bh)
//	physics.ResolvePairs(planets, bh, params)
//
// Planets spiralling into a black hole are skipped by every rule until the
// spiral completes and the planet is deactivated.
package physics
