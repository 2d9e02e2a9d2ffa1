package physics_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/solsim/internal/physics"
)

var _ = Describe("Collisions", func() {
	var (
		rng    *rand.Rand
		params physics.Params
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(11))
		params = physics.DefaultParams()
	})

	DescribeTable("detection is symmetric",
		func(angleA, angleB float64, want bool) {
			a := newPlanet("A", 100, 12, rng)
			b := newPlanet("B", 100, 12, rng)
			a.Angle, b.Angle = angleA, angleB
			Expect(a.CheckCollision(b)).To(Equal(want))
			Expect(b.CheckCollision(a)).To(Equal(a.CheckCollision(b)))
		},
		Entry("same spot", 10.0, 10.0, true),
		Entry("close", 10.0, 20.0, true),
		Entry("apart", 10.0, 40.0, false),
		Entry("opposite", 0.0, 180.0, false),
	)

	It("ignores inactive planets", func() {
		a := newPlanet("A", 100, 12, rng)
		b := newPlanet("B", 100, 12, rng)
		a.Angle, b.Angle = 0, 0
		b.Active = false
		Expect(a.CheckCollision(b)).To(BeFalse())
		Expect(physics.ResolvePairs([]*physics.Planet{a, b}, nil, params)).To(BeEmpty())
	})

	It("attracts distant pairs symmetrically", func() {
		a := newPlanet("A", 100, 12, rng)
		b := newPlanet("B", 200, 12, rng)
		a.Angle, b.Angle = 0, 0

		Expect(physics.ResolvePairs([]*physics.Planet{a, b}, nil, params)).To(BeEmpty())
		Expect(a.Vel.X).To(BeNumerically(">", 0))
		Expect(a.Vel.Add(b.Vel).Len()).To(BeNumerically("~", 0, 1e-12))
	})

	It("bounces and flashes overlapping pairs", func() {
		a := newPlanet("A", 100, 12, rng)
		b := newPlanet("B", 100, 12, rng)
		a.Angle, b.Angle = 0, 5
		a.Vel.X, b.Vel.X = 2, -4

		hits := physics.ResolvePairs([]*physics.Planet{a, b}, nil, params)
		Expect(hits).To(HaveLen(1))
		Expect(a.Vel.X).To(Equal(-1.0))
		Expect(b.Vel.X).To(Equal(2.0))
		Expect(a.CollisionTicks).To(Equal(physics.PlanetCollisionTicks))
		Expect(*a.CollisionPos).To(Equal(*b.CollisionPos))
		Expect(hits[0].At).To(Equal(*a.CollisionPos))
	})

	It("skips planets being absorbed", func() {
		a := newPlanet("A", 100, 12, rng)
		b := newPlanet("B", 100, 12, rng)
		a.Angle, b.Angle = 0, 0
		bh := physics.NewBlackHole(a.Position(), 10, params, rng)
		bh.StartAbsorption(a)

		Expect(physics.ResolvePairs([]*physics.Planet{a, b}, bh, params)).To(BeEmpty())
		Expect(b.CollisionFlash).To(BeZero())
	})

	It("flashes both planets on a collision course", func() {
		a := newPlanet("A", 100, 12, rng)
		b := newPlanet("B", 100, 12, rng)
		a.Angle, b.Angle = 0, 180
		b.OrbitalVelocity = 2 * a.OrbitalVelocity
		planets := []*physics.Planet{a, b}

		var hits []physics.Collision
		for tick := 0; tick < 1000 && len(hits) == 0; tick++ {
			for _, p := range planets {
				p.Update(1, nil, bounds, rng)
			}
			hits = physics.ResolvePairs(planets, nil, params)
		}

		Expect(hits).NotTo(BeEmpty())
		Expect(a.NominalPosition().Dist(b.NominalPosition())).To(BeNumerically("<", a.Radius+b.Radius))
		Expect(a.CollisionFlash).To(Equal(1.0))
		Expect(b.CollisionFlash).To(Equal(1.0))
		Expect(a.CollisionPos).NotTo(BeNil())
		Expect(b.CollisionPos).NotTo(BeNil())
	})
})
