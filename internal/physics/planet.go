package physics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/solsim/internal/vmath"
)

// PlanetSpec describes a planet of the catalog.
type PlanetSpec struct {
	Name     string  `yaml:"name"`
	Distance float64 `yaml:"distance"`
	Radius   float64 `yaml:"radius"`
	Color    string  `yaml:"color"`
	Period   float64 `yaml:"period"` // earth years, informational
	Rings    bool    `yaml:"rings"`
	RingHex  string  `yaml:"ring_color,omitempty"`
}

// Outcome is what a planet update did beyond advancing the orbit.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAbsorbing
	OutcomeEjected
	OutcomeEscaped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAbsorbing:
		return "absorbing"
	case OutcomeEjected:
		return "ejected"
	case OutcomeEscaped:
		return "escaped"
	}
	return "none"
}

type Planet struct {
	Spec PlanetSpec

	Radius          float64
	Mass            float64
	Distance        float64 // from the orbit center
	Angle           float64 // degrees
	OrbitalVelocity float64 // degrees per tick at speed 1

	Offset       vmath.Vec2 // orbit-center displacement
	Vel          vmath.Vec2
	TimeDilation float64
	Active       bool
	Ejected      bool

	CollisionFlash float64
	CollisionTicks int
	CollisionPos   *vmath.Vec2

	center       vmath.Vec2
	initDistance float64
	initAngle    float64
}

// NewPlanet creates a planet orbiting center with a random starting angle.
func NewPlanet(spec PlanetSpec, center vmath.Vec2, params Params, rng *rand.Rand) (*Planet, error) {
	if spec.Radius <= 0 || spec.Distance <= 0 {
		return nil, &BodyError{Body: spec.Name, Wrapped: ErrInvalidBody}
	}

	p := &Planet{
		Spec:            spec,
		Radius:          spec.Radius,
		Mass:            spec.Radius * PlanetMassFactor,
		OrbitalVelocity: math.Sqrt(params.G * params.OrbitConstant / spec.Distance),
		center:          center,
		initDistance:    spec.Distance,
		initAngle:       rng.Float64() * 360,
	}
	p.Reset()
	return p, nil
}

func (p *Planet) Name() string { return p.Spec.Name }

// Reset restores every field to its value at construction.
func (p *Planet) Reset() {
	p.Distance = p.initDistance
	p.Angle = p.initAngle
	p.Vel = vmath.Vec2{}
	p.Offset = vmath.Vec2{}
	p.Active = true
	p.Ejected = false
	p.CollisionFlash = 0
	p.CollisionTicks = 0
	p.CollisionPos = nil
	p.TimeDilation = 1.0
}

func (p *Planet) InitialDistance() float64 { return p.initDistance }
func (p *Planet) InitialAngle() float64    { return p.initAngle }
func (p *Planet) Center() vmath.Vec2       { return p.center }

// NominalPosition is the angle-derived position, ignoring the orbit offset.
func (p *Planet) NominalPosition() vmath.Vec2 {
	return p.center.Add(vmath.Polar(vmath.Deg2Rad(p.Angle), p.Distance))
}

// Position is where the planet actually is: nominal position shifted by the orbit offset.
func (p *Planet) Position() vmath.Vec2 {
	return p.NominalPosition().Add(p.Offset)
}

// MinDistance is the closest the orbit may come to its center.
func (p *Planet) MinDistance() float64 { return p.Radius + MinSunClearance }

// Update advances the planet by one tick at the given speed multiplier.
func (p *Planet) Update(speed float64, bh *BlackHole, bounds Bounds, rng *rand.Rand) Outcome {
	if !p.Active || bh.Owns(p) {
		return OutcomeNone
	}

	p.Angle += p.OrbitalVelocity * (speed / p.TimeDilation)

	outcome := OutcomeNone
	if bh != nil {
		pos := p.Position()
		delta := bh.Pos.Sub(pos)
		distance := delta.Len()

		if distance < bh.Radius*AbsorbRangeFactor {
			if bh.StartAbsorption(p) {
				return OutcomeAbsorbing
			}
			return OutcomeNone
		}
		if distance < bh.EffectRadius*EjectRangeFactor && !p.Ejected {
			p.eject(bh, delta, distance, rng)
			outcome = OutcomeEjected
		}

		if p.Ejected {
			p.Offset = p.Offset.Add(p.Vel)
			if bounds.Outside(pos, EscapeMargin) {
				p.Active = false
				return OutcomeEscaped
			}
			return outcome
		}

		bh.Pull(p, delta, distance)
	} else {
		p.Offset = p.Offset.Mul(OrbitDecay)
		p.TimeDilation = 1.0
	}

	if p.Distance < p.MinDistance() {
		p.Distance = p.MinDistance()
	}
	if p.CollisionFlash > 0 {
		p.CollisionFlash = math.Max(0, p.CollisionFlash-FlashDecay)
	}
	if p.CollisionTicks > 0 {
		p.CollisionTicks--
	}
	return outcome
}

// eject gives the planet a one-time slingshot kick along the planet-to-hole axis
// and stretches its orbit.
func (p *Planet) eject(bh *BlackHole, delta vmath.Vec2, distance float64, rng *rand.Rand) {
	escape := math.Sqrt(2 * bh.params.G * bh.Mass / math.Max(distance, 1))
	p.Vel = p.Vel.Add(vmath.Polar(delta.Angle(), escape*EjectKickFactor))
	p.Distance += float64(EjectBoostMin + rng.Intn(EjectBoostMax-EjectBoostMin+1))
	p.Offset = p.Offset.Add(vmath.V(math.Trunc(delta.X*0.5), math.Trunc(delta.Y*0.5)))
	p.Ejected = true
}

// ApplyGravityTo resolves one pair: overlapping planets collide, others attract.
// It reports whether the pair collided.
func (p *Planet) ApplyGravityTo(other *Planet, params Params) bool {
	if !p.Active || !other.Active {
		return false
	}

	delta := other.NominalPosition().Sub(p.NominalPosition())
	distance := delta.Len()

	if distance < p.Radius+other.Radius {
		p.HandleCollision(other)
		return true
	}

	force := params.G * p.Mass * other.Mass / (distance * distance)
	kick := vmath.Polar(delta.Angle(), force*params.PairForceScale)
	p.Vel = p.Vel.Add(kick)
	other.Vel = other.Vel.Sub(kick)
	return false
}

// HandleCollision flashes both planets, records the shared impact point and
// bounces their velocities back.
func (p *Planet) HandleCollision(other *Planet) {
	p.CollisionFlash = 1.0
	other.CollisionFlash = 1.0
	p.CollisionTicks = PlanetCollisionTicks
	other.CollisionTicks = PlanetCollisionTicks

	mid := p.Position().Mid(other.Position())
	at := vmath.V(math.Trunc(mid.X), math.Trunc(mid.Y))
	p.CollisionPos = &at
	other.CollisionPos = &at

	p.Vel = p.Vel.Mul(MomentumTransfer)
	other.Vel = other.Vel.Mul(MomentumTransfer)
}

// CheckCollision reports whether two active planets overlap at their nominal positions.
func (p *Planet) CheckCollision(other *Planet) bool {
	if !p.Active || !other.Active {
		return false
	}
	return p.NominalPosition().Dist(other.NominalPosition()) < p.Radius+other.Radius
}

func (p *Planet) Validate() error {
	if !p.Position().IsFinite() || !p.Vel.IsFinite() || math.IsNaN(p.TimeDilation) || math.IsInf(p.TimeDilation, 0) {
		return &BodyError{Body: p.Spec.Name, Wrapped: ErrNonFinite}
	}
	return nil
}

func (p *Planet) String() string {
	return fmt.Sprintf("%s(d=%.1f a=%.1f active=%t)", p.Spec.Name, p.Distance, p.Angle, p.Active)
}
