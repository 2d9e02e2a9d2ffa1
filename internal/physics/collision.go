package physics

import "github.com/san-kum/solsim/internal/vmath"

// Collision records two planets that touched during a tick.
type Collision struct {
	A, B *Planet
	At   vmath.Vec2
}

// ResolvePairs runs the inter-planet pass once over every unordered pair of
// active planets. Overlapping pairs flash and bounce; the rest attract each
// other. Planets captured by bh take no part.
func ResolvePairs(planets []*Planet, bh *BlackHole, params Params) []Collision {
	var hits []Collision
	for i, a := range planets {
		if !a.Active || bh.Owns(a) {
			continue
		}
		for _, b := range planets[i+1:] {
			if !b.Active || bh.Owns(b) {
				continue
			}
			if a.ApplyGravityTo(b, params) {
				hits = append(hits, Collision{A: a, B: b, At: *a.CollisionPos})
			}
		}
	}
	return hits
}
