package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/physics"
)

// Simulation owns every body and is the only thing that mutates them. It is
// not safe for concurrent use.
type Simulation struct {
	cfg    *config.Config
	params physics.Params
	bounds physics.Bounds

	sun       *physics.Sun
	planets   []*physics.Planet
	blackHole *physics.BlackHole

	speed     float64
	spawnSize int
	tick      int64
	stats     Stats

	rng       *rand.Rand
	log       hclog.Logger
	observers []Observer
	metrics   []Metric
}

type Option func(*Simulation)

func WithLogger(l hclog.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithRand replaces the seeded generator built from the config.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulation) { s.rng = r }
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:       cfg,
		params:    cfg.Physics,
		bounds:    cfg.Bounds(),
		speed:     cfg.Sim.Speed,
		spawnSize: cfg.Sim.BlackHole.Size,
		log:       hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := cfg.Sim.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed))
	}
	s.spawnSize = s.clampSize(s.spawnSize)

	center := cfg.Center()
	s.sun = physics.NewSun(center, cfg.Sun.Radius, s.params)
	s.planets = make([]*physics.Planet, 0, len(cfg.Planets))
	for _, spec := range cfg.Planets {
		p, err := physics.NewPlanet(spec, center, s.params, s.rng)
		if err != nil {
			return nil, err
		}
		s.planets = append(s.planets, p)
	}

	s.log.Debug("simulation created", "planets", len(s.planets), "speed", s.speed, "spawn_size", s.spawnSize)
	return s, nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }

func (s *Simulation) Config() *config.Config        { return s.cfg }
func (s *Simulation) Bounds() physics.Bounds        { return s.bounds }
func (s *Simulation) Sun() *physics.Sun             { return s.sun }
func (s *Simulation) Planets() []*physics.Planet    { return s.planets }
func (s *Simulation) BlackHole() *physics.BlackHole { return s.blackHole }
func (s *Simulation) Speed() float64                { return s.speed }
func (s *Simulation) SpawnSize() int                { return s.spawnSize }
func (s *Simulation) TickCount() int64              { return s.tick }

// Tick advances the simulation by one frame. Phase failures are collected in
// the report and do not stop the frame; the only error returned is the
// context's.
func (s *Simulation) Tick(ctx context.Context) (*FrameReport, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.tick++
	r := &FrameReport{Tick: s.tick}

	s.updateOrbits(r)
	s.check(r, PhaseOrbits)
	s.advanceAbsorptions(r)
	s.check(r, PhaseAbsorption)
	s.blackHoleSun(r)
	s.check(r, PhaseBlackHole)
	s.sunGravity(r)
	s.check(r, PhaseSunGravity)
	s.resolvePairs(r)
	s.check(r, PhaseCollisions)

	for _, err := range r.Errors {
		s.log.Error("phase failed", "tick", err.Tick, "phase", err.Phase, "error", err.Wrapped)
	}
	for _, e := range r.Events {
		s.notify(e)
	}
	if len(s.metrics) > 0 {
		snap := s.Snapshot()
		for _, m := range s.metrics {
			m.Observe(snap)
		}
	}
	return r, nil
}

func (s *Simulation) updateOrbits(r *FrameReport) {
	for _, p := range s.planets {
		switch p.Update(s.speed, s.blackHole, s.bounds, s.rng) {
		case physics.OutcomeAbsorbing:
			r.add(s.planetEvent(EventAbsorptionStarted, p))
		case physics.OutcomeEjected:
			s.stats.Ejected++
			r.add(s.planetEvent(EventEjected, p))
		case physics.OutcomeEscaped:
			s.stats.Escaped++
			r.add(s.planetEvent(EventEscaped, p))
		}
	}
}

func (s *Simulation) advanceAbsorptions(r *FrameReport) {
	if s.blackHole == nil {
		return
	}
	for _, p := range s.blackHole.AdvanceAbsorptions() {
		s.stats.Absorbed++
		e := s.planetEvent(EventAbsorbed, p)
		e.X, e.Y = s.blackHole.Pos.X, s.blackHole.Pos.Y
		r.add(e)
	}
}

func (s *Simulation) blackHoleSun(r *FrameReport) {
	if s.blackHole == nil {
		return
	}
	s.blackHole.AffectSun(s.sun)
	if s.sun.CheckBlackHoleInteraction(s.blackHole) {
		r.add(Event{Kind: EventSunAbsorbed, Tick: s.tick, Body: "sun", X: s.sun.Pos.X, Y: s.sun.Pos.Y, Value: s.blackHole.Radius})
	}
}

func (s *Simulation) sunGravity(r *FrameReport) {
	for _, p := range s.sun.AffectPlanets(s.planets, s.blackHole) {
		s.stats.SunCollisions++
		e := s.planetEvent(EventSunCollision, p)
		e.X, e.Y = p.CollisionPos.X, p.CollisionPos.Y
		r.add(e)
	}
}

func (s *Simulation) resolvePairs(r *FrameReport) {
	for _, c := range physics.ResolvePairs(s.planets, s.blackHole, s.params) {
		s.stats.Collisions++
		r.add(Event{Kind: EventCollision, Tick: s.tick, Body: c.A.Name(), Other: c.B.Name(), X: c.At.X, Y: c.At.Y})
	}
}

// check takes every body whose state is no longer finite out of the
// simulation and records why.
func (s *Simulation) check(r *FrameReport, phase Phase) {
	for _, p := range s.planets {
		if !p.Active {
			continue
		}
		if err := p.Validate(); err != nil {
			p.Active = false
			r.Errors = append(r.Errors, &PhaseError{Phase: phase, Tick: s.tick, Wrapped: err})
		}
	}
	if s.sun.Active {
		if err := s.sun.Validate(); err != nil {
			s.sun.Active = false
			r.Errors = append(r.Errors, &PhaseError{Phase: phase, Tick: s.tick, Wrapped: err})
		}
	}
	if s.blackHole != nil {
		if err := s.blackHole.Validate(); err != nil {
			s.blackHole = nil
			r.Errors = append(r.Errors, &PhaseError{Phase: phase, Tick: s.tick, Wrapped: err})
		}
	}
}

func (s *Simulation) planetEvent(kind EventKind, p *physics.Planet) Event {
	pos := p.Position()
	return Event{Kind: kind, Tick: s.tick, Body: p.Name(), X: pos.X, Y: pos.Y}
}

func (r *FrameReport) add(e Event) { r.Events = append(r.Events, e) }

func (s *Simulation) notify(e Event) {
	s.log.Debug("event", "kind", e.Kind, "tick", e.Tick, "body", e.Body)
	for _, o := range s.observers {
		o.OnEvent(e)
	}
}

// Run ticks the simulation n times and reports the registered metrics.
func (s *Simulation) Run(ctx context.Context, ticks int64) (*Result, error) {
	return s.RunWithCallback(ctx, ticks, nil)
}

// RunWithCallback is Run with a hook after every tick. Returning false from
// callback stops the run early.
func (s *Simulation) RunWithCallback(ctx context.Context, ticks int64, callback func(*FrameReport) bool) (*Result, error) {
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	for i := int64(0); i < ticks; i++ {
		r, err := s.Tick(ctx)
		if err != nil {
			result.Final = s.Snapshot()
			return result, err
		}
		result.Ticks++
		for _, e := range r.Errors {
			result.Errors = append(result.Errors, e)
		}
		if callback != nil && !callback(r) {
			break
		}
	}

	result.Final = s.Snapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
