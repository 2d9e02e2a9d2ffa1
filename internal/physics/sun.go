package physics

import (
	"math"

	"github.com/san-kum/solsim/internal/vmath"
)

type Sun struct {
	Pos        vmath.Vec2
	BaseRadius float64
	GlowRadius float64
	Mass       float64
	Active     bool

	home   vmath.Vec2
	params Params
}

// NewSun places a sun at pos. Mass and glow radius derive from radius.
func NewSun(pos vmath.Vec2, radius float64, params Params) *Sun {
	return &Sun{
		Pos:        pos,
		BaseRadius: radius,
		GlowRadius: radius * SunGlowFactor,
		Mass:       radius * SunMassFactor,
		Active:     true,
		home:       pos,
		params:     params,
	}
}

// Reset moves the sun back to where it was created and reactivates it.
func (s *Sun) Reset() {
	s.Pos = s.home
	s.Active = true
}

func (s *Sun) Home() vmath.Vec2 { return s.home }

// AffectPlanets pulls every active planet towards the sun. Planets that
// overlap the sun are deactivated and returned.
func (s *Sun) AffectPlanets(planets []*Planet, bh *BlackHole) []*Planet {
	if !s.Active {
		return nil
	}

	var hit []*Planet
	for _, p := range planets {
		if !p.Active || bh.Owns(p) {
			continue
		}

		delta := s.Pos.Sub(p.Position())
		distance := delta.Len()

		if distance < p.Radius+s.BaseRadius {
			p.Active = false
			p.CollisionTicks = SunCollisionTicks
			at := vmath.V(math.Trunc(s.Pos.X), math.Trunc(s.Pos.Y))
			p.CollisionPos = &at
			hit = append(hit, p)
			continue
		}
		if distance < 1 {
			distance = 1
		}

		force := s.params.G * s.Mass * p.Mass / (distance * distance)
		p.Vel = p.Vel.Add(vmath.Polar(delta.Angle(), force*s.params.SunForceScale))
	}
	return hit
}

// CheckBlackHoleInteraction lets the black hole swallow the sun when the sun
// touches its event horizon. It reports whether that happened.
func (s *Sun) CheckBlackHoleInteraction(bh *BlackHole) bool {
	if !s.Active || bh == nil {
		return false
	}

	if s.Pos.Dist(bh.Pos) < bh.EventHorizon+s.BaseRadius {
		s.Active = false
		bh.Mass += s.Mass * SunAbsorbMassFactor
		bh.Radius *= SunAbsorbRadiusFactor
		bh.EventHorizon = bh.Radius * bh.params.HorizonFactor
		return true
	}
	return false
}

func (s *Sun) Validate() error {
	if !s.Pos.IsFinite() {
		return &BodyError{Body: "sun", Wrapped: ErrNonFinite}
	}
	return nil
}
