package physics_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/vmath"
)

var (
	center = vmath.V(500, 500)
	bounds = physics.Bounds{Left: 0, Top: 0, Right: 1000, Bottom: 1000}
)

func newPlanet(name string, distance, radius float64, rng *rand.Rand) *physics.Planet {
	p, err := physics.NewPlanet(physics.PlanetSpec{Name: name, Distance: distance, Radius: radius}, center, physics.DefaultParams(), rng)
	Expect(err).NotTo(HaveOccurred())
	return p
}

var _ = Describe("Planet", func() {
	var (
		rng    *rand.Rand
		params physics.Params
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
		params = physics.DefaultParams()
	})

	It("derives mass and orbital velocity from its spec", func() {
		p := newPlanet("Earth", 130, 12, rng)
		Expect(p.Mass).To(Equal(120.0))
		Expect(p.OrbitalVelocity).To(BeNumerically("~", 0.877, 0.001))
		Expect(p.InitialAngle()).To(BeNumerically(">=", 0))
		Expect(p.InitialAngle()).To(BeNumerically("<", 360))
		Expect(p.Ejected).To(BeFalse())
		Expect(p.TimeDilation).To(Equal(1.0))
	})

	It("rejects non-positive sizes", func() {
		_, err := physics.NewPlanet(physics.PlanetSpec{Name: "Void", Distance: 100}, center, params, rng)
		Expect(err).To(MatchError(physics.ErrInvalidBody))
	})

	It("advances its angle scaled by speed", func() {
		p := newPlanet("Mars", 100, 8, rng)
		start := p.Angle
		p.Update(2, nil, bounds, rng)
		Expect(p.Angle - start).To(BeNumerically("~", 2*p.OrbitalVelocity, 1e-9))
	})

	It("decays its orbit offset without a black hole", func() {
		p := newPlanet("Mars", 100, 8, rng)
		p.Offset = vmath.V(10, -20)
		p.TimeDilation = 3
		p.Update(1, nil, bounds, rng)
		Expect(p.Offset.X).To(BeNumerically("~", 9.5, 1e-9))
		Expect(p.Offset.Y).To(BeNumerically("~", -19, 1e-9))
		Expect(p.TimeDilation).To(Equal(1.0))
	})

	It("restores construction state on reset", func() {
		p := newPlanet("Venus", 95, 10, rng)
		bh := physics.NewBlackHole(p.Position().Add(vmath.V(40, 0)), 10, params, rng)
		for i := 0; i < 50; i++ {
			p.Update(5, bh, bounds, rng)
		}
		p.CollisionFlash = 0.7
		p.CollisionTicks = 4
		p.Active = false

		p.Reset()

		Expect(p.Distance).To(Equal(p.InitialDistance()))
		Expect(p.Angle).To(Equal(p.InitialAngle()))
		Expect(p.Vel).To(Equal(vmath.Vec2{}))
		Expect(p.Offset).To(Equal(vmath.Vec2{}))
		Expect(p.Active).To(BeTrue())
		Expect(p.Ejected).To(BeFalse())
		Expect(p.TimeDilation).To(Equal(1.0))
		Expect(p.CollisionFlash).To(BeZero())
		Expect(p.CollisionPos).To(BeNil())
	})

	It("never orbits closer than radius+50", func() {
		planets := []*physics.Planet{
			newPlanet("Mercury", 65, 5, rng),
			newPlanet("Venus", 95, 10, rng),
			newPlanet("Earth", 130, 12, rng),
		}
		planets[0].Distance = 20
		bh := physics.NewBlackHole(vmath.V(700, 500), 15, params, rng)

		for tick := 0; tick < 500; tick++ {
			for _, p := range planets {
				p.Update(5, bh, bounds, rng)
			}
			bh.AdvanceAbsorptions()
			for _, p := range planets {
				if p.Active && !bh.Absorbing(p) {
					Expect(p.Distance).To(BeNumerically(">=", p.MinDistance()), "tick %d planet %s", tick, p.Name())
				}
			}
		}
	})

	Context("near a black hole", func() {
		It("is ejected exactly once", func() {
			p := newPlanet("Earth", 100, 12, rng)
			p.Angle = 0
			bh := physics.NewBlackHole(vmath.V(660, 500), 10, params, rng)

			Expect(p.Update(1, bh, bounds, rng)).To(Equal(physics.OutcomeEjected))
			Expect(p.Ejected).To(BeTrue())
			Expect(p.Distance).To(BeNumerically(">=", 200))
			Expect(p.Distance).To(BeNumerically("<=", 400))

			distance := p.Distance
			Expect(p.Update(1, bh, bounds, rng)).To(Equal(physics.OutcomeNone))
			Expect(p.Distance).To(Equal(distance))
		})

		It("starts absorption when inside the capture range", func() {
			p := newPlanet("Mercury", 100, 5, rng)
			p.Angle = 0
			bh := physics.NewBlackHole(vmath.V(600, 500), 10, params, rng)

			Expect(p.Update(1, bh, bounds, rng)).To(Equal(physics.OutcomeAbsorbing))
			Expect(bh.Absorbing(p)).To(BeTrue())
			Expect(p.Active).To(BeTrue())

			angle := p.Angle
			Expect(p.Update(1, bh, bounds, rng)).To(Equal(physics.OutcomeNone))
			Expect(p.Angle).To(Equal(angle))
		})

		It("is captured once even after its spiral completes", func() {
			p := newPlanet("Mercury", 100, 5, rng)
			p.Angle = 0
			bh := physics.NewBlackHole(vmath.V(600, 500), 10, params, rng)

			Expect(p.Update(1, bh, bounds, rng)).To(Equal(physics.OutcomeAbsorbing))
			for bh.Animations[0].Progress < 1 {
				bh.AdvanceAbsorptions()
			}
			Expect(bh.Absorbing(p)).To(BeFalse())
			Expect(bh.Owns(p)).To(BeTrue())

			angle, mass := p.Angle, bh.Mass
			Expect(p.Update(1, bh, bounds, rng)).To(Equal(physics.OutcomeNone))
			Expect(p.Angle).To(Equal(angle))
			Expect(bh.Mass).To(Equal(mass))
			Expect(bh.AdvanceAbsorptions()).To(ConsistOf(p))
		})

		It("slows its clock and drifts towards the hole", func() {
			p := newPlanet("Neptune", 100, 15, rng)
			p.Angle = 0
			bh := physics.NewBlackHole(vmath.V(500, 300), 10, params, rng)

			p.Update(1, bh, bounds, rng)
			Expect(p.TimeDilation).To(BeNumerically(">", 1))
			Expect(p.Offset.Y).To(BeNumerically("<", 0))
		})

		It("escapes once it leaves the panel", func() {
			p := newPlanet("Earth", 100, 12, rng)
			p.Angle = 0
			bh := physics.NewBlackHole(vmath.V(660, 500), 10, params, rng)
			p.Update(1, bh, bounds, rng)
			p.Vel = vmath.V(50, 0)

			var outcome physics.Outcome
			for i := 0; i < 100 && p.Active; i++ {
				outcome = p.Update(1, bh, bounds, rng)
			}
			Expect(p.Active).To(BeFalse())
			Expect(outcome).To(Equal(physics.OutcomeEscaped))
		})
	})
})
