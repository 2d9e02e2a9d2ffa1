package physics

import (
	"math"
	"math/rand"

	"github.com/san-kum/solsim/internal/vmath"
)

// Absorption is an in-flight spiral of a planet into a black hole.
type Absorption struct {
	Progress    float64 // 0..1
	Planet      *Planet
	SpiralPhase float64 // radians
	Stretch     float64
	Pos         vmath.Vec2 // current spiral point
}

type BlackHole struct {
	Pos          vmath.Vec2
	Radius       float64
	Mass         float64
	EventHorizon float64
	EffectRadius float64
	PullStrength float64

	Absorbed   map[*Planet]struct{}
	Animations []*Absorption
	params     Params
	rng        *rand.Rand
}

func NewBlackHole(pos vmath.Vec2, radius float64, params Params, rng *rand.Rand) *BlackHole {
	return &BlackHole{
		Pos:          pos,
		Radius:       radius,
		Mass:         radius * BlackHoleMassFactor,
		EventHorizon: radius * params.HorizonFactor,
		EffectRadius: radius * EffectRadiusFactor,
		PullStrength: params.PullStrength,
		Absorbed:     make(map[*Planet]struct{}),
		params:       params,
		rng:          rng,
	}
}

// Absorbing reports whether p is currently spiralling into the hole. A nil
// hole absorbs nothing.
func (bh *BlackHole) Absorbing(p *Planet) bool {
	if bh == nil {
		return false
	}
	for _, a := range bh.Animations {
		if a.Planet == p && a.Progress < 1.0 {
			return true
		}
	}
	return false
}

// Owns reports whether p has been captured by the hole, including a spiral
// that has completed but not yet been removed. Captured planets take no part
// in any other rule.
func (bh *BlackHole) Owns(p *Planet) bool {
	if bh == nil {
		return false
	}
	_, ok := bh.Absorbed[p]
	return ok
}

// StartAbsorption begins swallowing p and grows the hole immediately. It is a
// no-op for planets already absorbed and reports whether anything happened.
func (bh *BlackHole) StartAbsorption(p *Planet) bool {
	if _, ok := bh.Absorbed[p]; ok {
		return false
	}

	bh.Absorbed[p] = struct{}{}
	bh.Animations = append(bh.Animations, &Absorption{
		Planet:      p,
		SpiralPhase: bh.rng.Float64() * 2 * math.Pi,
		Stretch:     1.0,
		Pos:         p.Position(),
	})

	bh.Mass += p.Mass
	bh.Radius = math.Sqrt(bh.Radius*bh.Radius + p.Radius)
	bh.EventHorizon = bh.Radius * bh.params.HorizonFactor
	return true
}

// AdvanceAbsorptions moves every spiral one tick forward. Planets whose spiral
// had already completed are deactivated, dropped and returned.
func (bh *BlackHole) AdvanceAbsorptions() []*Planet {
	var done []*Planet
	kept := bh.Animations[:0]

	for _, a := range bh.Animations {
		if a.Progress >= 1.0 {
			a.Planet.Active = false
			done = append(done, a.Planet)
			continue
		}

		theta := a.SpiralPhase + a.Progress*SpiralTurns*math.Pi
		a.Pos = bh.Pos.Add(vmath.Polar(theta, (1-a.Progress)*SpiralRadius))
		a.Stretch = 1 + a.Progress*StretchGrowth
		a.Progress = math.Min(1.0, a.Progress+AbsorbBaseStep+AbsorbAccel*a.Progress)
		kept = append(kept, a)
	}

	for i := len(kept); i < len(bh.Animations); i++ {
		bh.Animations[i] = nil
	}
	bh.Animations = kept
	return done
}

// Pull drags a planet's orbit center towards the hole and slows its clock.
// delta points from the planet to the hole.
func (bh *BlackHole) Pull(p *Planet, delta vmath.Vec2, distance float64) {
	if distance < 1 {
		distance = 1
	}
	force := math.Min(bh.params.G*bh.Mass*p.Mass/(distance*distance), bh.params.MaxPullForce)
	pull := vmath.Polar(delta.Angle(), force*bh.PullStrength*bh.params.PullScale)
	p.Offset = p.Offset.Add(pull)
	p.TimeDilation = 1 + bh.Mass/(distance*bh.params.LightSpeed)
}

// AffectSun nudges the sun towards the hole.
func (bh *BlackHole) AffectSun(s *Sun) {
	if !s.Active {
		return
	}

	delta := bh.Pos.Sub(s.Pos)
	distance := delta.Len()
	if distance > 1 {
		force := bh.params.G * bh.Mass * s.Mass / (distance * distance)
		s.Pos = s.Pos.Add(delta.Mul(force * bh.params.SunNudgeScale / distance))
	}
}

func (bh *BlackHole) Validate() error {
	if !bh.Pos.IsFinite() || math.IsNaN(bh.Radius) || math.IsInf(bh.Radius, 0) {
		return &BodyError{Body: "black hole", Wrapped: ErrNonFinite}
	}
	return nil
}
