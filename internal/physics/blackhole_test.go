package physics_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/vmath"
)

var _ = Describe("BlackHole", func() {
	var (
		rng    *rand.Rand
		params physics.Params
		bh     *physics.BlackHole
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
		params = physics.DefaultParams()
		bh = physics.NewBlackHole(vmath.V(300, 300), 20, params, rng)
	})

	It("derives mass and radii from its radius", func() {
		Expect(bh.Mass).To(Equal(2000.0))
		Expect(bh.EventHorizon).To(Equal(40.0))
		Expect(bh.EffectRadius).To(Equal(240.0))
	})

	It("absorbs a planet only once", func() {
		p := newPlanet("Earth", 130, 12, rng)

		Expect(bh.StartAbsorption(p)).To(BeTrue())
		mass, radius := bh.Mass, bh.Radius
		Expect(mass).To(Equal(2120.0))
		Expect(radius).To(BeNumerically("~", math.Sqrt(412), 1e-9))

		Expect(bh.StartAbsorption(p)).To(BeFalse())
		Expect(bh.Mass).To(Equal(mass))
		Expect(bh.Radius).To(Equal(radius))
		Expect(bh.Absorbed).To(HaveLen(1))
		Expect(bh.Animations).To(HaveLen(1))
	})

	It("grows monotonically", func() {
		for i, spec := range []struct{ d, r float64 }{{65, 5}, {95, 10}, {220, 25}, {380, 15}} {
			p := newPlanet(string(rune('A'+i)), spec.d, spec.r, rng)
			radius, horizon := bh.Radius, bh.EventHorizon
			bh.StartAbsorption(p)
			Expect(bh.Radius).To(BeNumerically(">=", radius))
			Expect(bh.EventHorizon).To(BeNumerically(">=", horizon))
		}
	})

	It("deactivates a planet only after its spiral completes", func() {
		p := newPlanet("Mars", 165, 8, rng)
		bh.StartAbsorption(p)

		ticks := 0
		for p.Active {
			Expect(bh.Absorbing(p)).To(Equal(bh.Animations[0].Progress < 1))
			done := bh.AdvanceAbsorptions()
			ticks++
			Expect(ticks).To(BeNumerically("<", 100))
			if len(done) > 0 {
				Expect(done).To(ConsistOf(p))
			}
		}

		Expect(bh.Animations).To(BeEmpty())
		Expect(bh.Absorbing(p)).To(BeFalse())
		Expect(bh.Absorbed).To(HaveKey(p))
	})

	It("pulls the spiral towards its center", func() {
		p := newPlanet("Venus", 95, 10, rng)
		bh.StartAbsorption(p)

		bh.AdvanceAbsorptions()
		first := bh.Animations[0].Pos.Dist(bh.Pos)
		bh.AdvanceAbsorptions()
		second := bh.Animations[0].Pos.Dist(bh.Pos)

		Expect(first).To(BeNumerically("~", physics.SpiralRadius, 1e-9))
		Expect(second).To(BeNumerically("<", first))
		Expect(bh.Animations[0].Stretch).To(BeNumerically(">", 1))
	})

	It("treats a nil hole as absorbing nothing", func() {
		var none *physics.BlackHole
		earth := newPlanet("Earth", 130, 12, rng)
		Expect(none.Absorbing(earth)).To(BeFalse())
		Expect(none.Owns(earth)).To(BeFalse())
	})
})

var _ = Describe("Sun", func() {
	var (
		rng    *rand.Rand
		params physics.Params
		sun    *physics.Sun
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(3))
		params = physics.DefaultParams()
		sun = physics.NewSun(center, 40, params)
	})

	It("derives mass and glow from its radius", func() {
		Expect(sun.Mass).To(Equal(40000.0))
		Expect(sun.GlowRadius).To(Equal(60.0))
	})

	It("attracts planets", func() {
		p := newPlanet("Earth", 130, 12, rng)
		p.Angle = 0
		Expect(sun.AffectPlanets([]*physics.Planet{p}, nil)).To(BeEmpty())
		Expect(p.Vel.X).To(BeNumerically("<", 0))
		Expect(p.Vel.Y).To(BeNumerically("~", 0, 1e-12))
	})

	It("deactivates planets it touches", func() {
		p := newPlanet("Mercury", 30, 5, rng)
		hit := sun.AffectPlanets([]*physics.Planet{p}, nil)
		Expect(hit).To(ConsistOf(p))
		Expect(p.Active).To(BeFalse())
		Expect(p.CollisionTicks).To(Equal(physics.SunCollisionTicks))
		Expect(*p.CollisionPos).To(Equal(center))
	})

	It("is swallowed by a black hole spawned on top of it", func() {
		bh := physics.NewBlackHole(sun.Pos, 20, params, rng)

		swallowed := false
		for i := 0; i < 10 && !swallowed; i++ {
			bh.AffectSun(sun)
			swallowed = sun.CheckBlackHoleInteraction(bh)
		}

		Expect(swallowed).To(BeTrue())
		Expect(sun.Active).To(BeFalse())
		Expect(bh.Radius).To(Equal(30.0))
		Expect(bh.EventHorizon).To(Equal(60.0))
		Expect(bh.Mass).To(Equal(2000.0 + 2*40000.0))
	})

	It("returns home on reset", func() {
		bh := physics.NewBlackHole(vmath.V(800, 500), 50, params, rng)
		for i := 0; i < 20; i++ {
			bh.AffectSun(sun)
		}
		Expect(sun.Pos).NotTo(Equal(center))

		sun.Active = false
		sun.Reset()
		Expect(sun.Pos).To(Equal(center))
		Expect(sun.Active).To(BeTrue())
	})
})
