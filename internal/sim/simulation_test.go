package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/physics"
	"github.com/san-kum/solsim/internal/vmath"
)

func newTestSim(t *testing.T, opts ...Option) *Simulation {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Sim.Seed = 1
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func tickN(t *testing.T, s *Simulation, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestNew(t *testing.T) {
	s := newTestSim(t)

	if len(s.Planets()) != 8 {
		t.Errorf("expected 8 planets, got %d", len(s.Planets()))
	}
	if s.Sun().Pos != vmath.V(750, 535) {
		t.Errorf("expected sun at panel center, got %+v", s.Sun().Pos)
	}
	if s.Speed() != 1 {
		t.Errorf("expected speed 1, got %f", s.Speed())
	}
	if s.SpawnSize() != 20 {
		t.Errorf("expected spawn size 20, got %d", s.SpawnSize())
	}
	if s.BlackHole() != nil {
		t.Error("expected no black hole")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sim.FPS = 0
	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a, b := newTestSim(t), newTestSim(t)
	for i := range a.Planets() {
		if a.Planets()[i].Angle != b.Planets()[i].Angle {
			t.Fatalf("planet %d: angles differ for the same seed", i)
		}
	}
}

func TestChangeBlackHoleSize(t *testing.T) {
	tests := []struct {
		name  string
		delta int
		want  int
	}{
		{"grow", 5, 25},
		{"shrink", -5, 15},
		{"floor", -100, 10},
		{"ceiling", 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t)
			if got := s.ChangeBlackHoleSize(tt.delta); got != tt.want {
				t.Errorf("ChangeBlackHoleSize(%d) = %d, want %d", tt.delta, got, tt.want)
			}
			if s.SpawnSize() != tt.want {
				t.Errorf("spawn size %d, want %d", s.SpawnSize(), tt.want)
			}
		})
	}
}

func TestSetSpeed(t *testing.T) {
	s := newTestSim(t)

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := s.SetSpeed(bad); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("SetSpeed(%v) = %v, want ErrInvalidSpeed", bad, err)
		}
	}
	if s.Speed() != 1 {
		t.Errorf("rejected speed changed state: %f", s.Speed())
	}

	p := s.Planets()[2]
	start := p.Angle
	if err := s.SetSpeed(5); err != nil {
		t.Fatal(err)
	}
	tickN(t, s, 1)
	if got, want := p.Angle-start, 5*p.OrbitalVelocity; math.Abs(got-want) > 1e-9 {
		t.Errorf("angle advanced %f, want %f", got, want)
	}
}

func TestCreateBlackHole(t *testing.T) {
	s := newTestSim(t)
	s.ChangeBlackHoleSize(10)
	s.Planets()[0].Ejected = true

	if err := s.CreateBlackHole(200, 300); err != nil {
		t.Fatal(err)
	}
	bh := s.BlackHole()
	if bh == nil || bh.Pos != vmath.V(200, 300) || bh.Radius != 30 {
		t.Fatalf("unexpected black hole %+v", bh)
	}
	if s.Planets()[0].Ejected {
		t.Error("new black hole should clear the ejected flag")
	}
	if err := s.CreateBlackHole(math.NaN(), 0); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}

	s.ResetBlackHole()
	if s.BlackHole() != nil {
		t.Error("expected black hole to be removed")
	}
}

func TestSunAbsorbedByBlackHole(t *testing.T) {
	s := newTestSim(t)
	sun := s.Sun()
	if err := s.CreateBlackHole(sun.Pos.X, sun.Pos.Y); err != nil {
		t.Fatal(err)
	}

	r, err := s.Tick(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if sun.Active {
		t.Error("expected sun to be absorbed")
	}
	if got := s.BlackHole().Radius; got != 30 {
		t.Errorf("expected radius 20*1.5=30, got %f", got)
	}
	found := false
	for _, e := range r.Events {
		if e.Kind == EventSunAbsorbed {
			found = true
		}
	}
	if !found {
		t.Error("expected a sun_absorbed event")
	}
}

func TestMinDistanceInvariant(t *testing.T) {
	s := newTestSim(t)
	if err := s.SetSpeed(5); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateBlackHole(900, 535); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 600; i++ {
		tickN(t, s, 1)
		for _, p := range s.Planets() {
			if p.Active && p.Distance < p.MinDistance() {
				t.Fatalf("tick %d: %s at distance %f below %f", i, p.Name(), p.Distance, p.MinDistance())
			}
		}
	}
}

func TestMinDistanceClamp(t *testing.T) {
	tests := []struct {
		name     string
		distance func(floor float64) float64
	}{
		{"just under", func(floor float64) float64 { return floor - 1 }},
		{"half way", func(floor float64) float64 { return floor / 2 }},
		{"at the sun", func(float64) float64 { return 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t)
			earth := s.Planets()[2]
			floor := earth.MinDistance()
			earth.Distance = tt.distance(floor)

			tickN(t, s, 1)

			if earth.Distance != floor {
				t.Errorf("distance %f, want clamped to %f", earth.Distance, floor)
			}
		})
	}
}

func TestBlackHoleGrowsMonotonically(t *testing.T) {
	s := newTestSim(t)
	if err := s.CreateBlackHole(850, 535); err != nil {
		t.Fatal(err)
	}

	prev := s.BlackHole().Radius
	for i := 0; i < 600; i++ {
		tickN(t, s, 1)
		r := s.BlackHole().Radius
		if r < prev {
			t.Fatalf("tick %d: radius shrank from %f to %f", i, prev, r)
		}
		prev = r
	}
}

func TestReset(t *testing.T) {
	s := newTestSim(t)
	if err := s.CreateBlackHole(800, 500); err != nil {
		t.Fatal(err)
	}
	tickN(t, s, 200)

	s.Reset()

	if s.BlackHole() != nil {
		t.Error("reset should remove the black hole")
	}
	if !s.Sun().Active || s.Sun().Pos != s.Sun().Home() {
		t.Error("reset should restore the sun")
	}
	for _, p := range s.Planets() {
		if p.Distance != p.InitialDistance() || p.Angle != p.InitialAngle() {
			t.Errorf("%s: orbit not restored", p.Name())
		}
		if p.Vel != (vmath.Vec2{}) || p.Offset != (vmath.Vec2{}) {
			t.Errorf("%s: motion not cleared", p.Name())
		}
		if !p.Active || p.Ejected || p.TimeDilation != 1 {
			t.Errorf("%s: flags not restored", p.Name())
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestSim(t)
	if err := s.CreateBlackHole(400, 300); err != nil {
		t.Fatal(err)
	}
	tickN(t, s, 50)
	s.Planets()[3].Active = false

	saved := s.Snapshot()
	tickN(t, s, 100)
	s.ResetBlackHole()
	s.Planets()[2].Ejected = true

	if err := s.Restore(saved); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := s.Snapshot()

	if got.Sun.Active != saved.Sun.Active || got.Sun.X != saved.Sun.X || got.Sun.Y != saved.Sun.Y {
		t.Errorf("sun not restored: %+v vs %+v", got.Sun, saved.Sun)
	}
	if got.BlackHole == nil {
		t.Fatal("black hole not restored")
	}
	if got.BlackHole.X != saved.BlackHole.X || got.BlackHole.Y != saved.BlackHole.Y || got.BlackHole.Radius != saved.BlackHole.Radius {
		t.Errorf("black hole not restored: %+v vs %+v", got.BlackHole, saved.BlackHole)
	}
	for i := range saved.Planets {
		a, b := saved.Planets[i], got.Planets[i]
		if a.Distance != b.Distance || a.Angle != b.Angle || a.Active != b.Active {
			t.Errorf("planet %d not restored: %+v vs %+v", i, b, a)
		}
	}
	for _, p := range s.Planets() {
		if p.Ejected {
			t.Errorf("%s still ejected after restore", p.Name())
		}
	}
}

func TestRestoreWithoutBlackHole(t *testing.T) {
	s := newTestSim(t)
	saved := s.Snapshot()

	if err := s.CreateBlackHole(400, 300); err != nil {
		t.Fatal(err)
	}
	if err := s.Restore(saved); err != nil {
		t.Fatal(err)
	}
	if s.BlackHole() != nil {
		t.Error("restoring a state without a black hole should clear it")
	}
}

func TestRestoreRejected(t *testing.T) {
	s := newTestSim(t)
	before := s.Snapshot()

	short := s.Snapshot()
	short.Planets = short.Planets[:5]
	short.Sun.Active = false
	if err := s.Restore(short); !errors.Is(err, ErrPlanetCount) {
		t.Errorf("expected ErrPlanetCount, got %v", err)
	}

	bad := s.Snapshot()
	bad.Planets[0].Angle = math.NaN()
	bad.Sun.X = 1
	if err := s.Restore(bad); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot, got %v", err)
	}

	after := s.Snapshot()
	if after.Sun != before.Sun {
		t.Error("rejected restore modified the sun")
	}
	for i := range before.Planets {
		if after.Planets[i].Angle != before.Planets[i].Angle {
			t.Errorf("rejected restore modified planet %d", i)
		}
	}
}

func TestTickCanceled(t *testing.T) {
	s := newTestSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if s.TickCount() != 0 {
		t.Error("canceled tick should not advance the clock")
	}
}

func TestNonFiniteBodyIsIsolated(t *testing.T) {
	s := newTestSim(t)
	broken := s.Planets()[4]
	broken.Offset = vmath.V(math.NaN(), 0)
	healthy := s.Planets()[1]
	start := healthy.Angle

	r, err := s.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick should not fail: %v", err)
	}

	if len(r.Errors) != 1 {
		t.Fatalf("expected 1 phase error, got %d", len(r.Errors))
	}
	var pe *PhaseError
	if !errors.As(r.Err(), &pe) || pe.Phase != PhaseOrbits {
		t.Errorf("expected orbits phase error, got %v", r.Err())
	}
	if !errors.Is(r.Err(), physics.ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", r.Err())
	}
	if broken.Active {
		t.Error("broken planet should be deactivated")
	}
	if healthy.Angle == start {
		t.Error("healthy planets should keep moving")
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	var got []Event
	s := newTestSim(t, WithObserver(ObserverFunc(func(e Event) { got = append(got, e) })))

	if err := s.SetSpeed(2); err != nil {
		t.Fatal(err)
	}
	s.ChangeBlackHoleSize(-100)
	s.Reset()

	want := []string{"Speed set to 2x", "Black hole size: 10", "Simulation reset!"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Message() != want[i] {
			t.Errorf("event %d: %q, want %q", i, got[i].Message(), want[i])
		}
	}
}

func TestAbsorptionReportedOnce(t *testing.T) {
	type key struct {
		body string
		kind EventKind
	}
	counts := map[key]int{}
	s := newTestSim(t, WithObserver(ObserverFunc(func(e Event) {
		if e.Kind == EventAbsorptionStarted || e.Kind == EventAbsorbed {
			counts[key{e.Body, e.Kind}]++
		}
	})))

	earth := s.Planets()[2]
	pos := earth.Position()
	if err := s.CreateBlackHole(pos.X, pos.Y); err != nil {
		t.Fatal(err)
	}
	tickN(t, s, 200)

	if earth.Active {
		t.Fatal("earth should have been absorbed")
	}
	for _, kind := range []EventKind{EventAbsorptionStarted, EventAbsorbed} {
		if n := counts[key{"Earth", kind}]; n != 1 {
			t.Errorf("Earth: %d %s events, want 1", n, kind)
		}
	}
	for k, n := range counts {
		if n > 1 {
			t.Errorf("%s: %d %s events", k.body, n, k.kind)
		}
	}
	absorbed := 0
	for k, n := range counts {
		if k.kind == EventAbsorbed {
			absorbed += n
		}
	}
	if got := s.Snapshot().Stats.Absorbed; got != absorbed {
		t.Errorf("stats count %d absorptions, events %d", got, absorbed)
	}
}

type countMetric struct{ n float64 }

func (m *countMetric) Name() string       { return "count" }
func (m *countMetric) Observe(s Snapshot) { m.n++ }
func (m *countMetric) Value() float64     { return m.n }
func (m *countMetric) Reset()             { m.n = 0 }

func TestRun(t *testing.T) {
	s := newTestSim(t)
	s.AddMetric(&countMetric{n: 42})

	result, err := s.Run(context.Background(), 25)
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticks != 25 || result.Final.Tick != 25 {
		t.Errorf("expected 25 ticks, got %d (final %d)", result.Ticks, result.Final.Tick)
	}
	if result.Metrics["count"] != 25 {
		t.Errorf("expected metric 25, got %f", result.Metrics["count"])
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	s := newTestSim(t)
	calls := 0
	result, err := s.RunWithCallback(context.Background(), 100, func(r *FrameReport) bool {
		calls++
		return r.Tick < 10
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 10 || result.Ticks != 10 {
		t.Errorf("expected to stop after 10 ticks, got %d calls and %d ticks", calls, result.Ticks)
	}
}

func TestEnsemble(t *testing.T) {
	cfg := config.DefaultConfig()
	e := NewEnsemble(cfg, 3, 1, func() []Metric { return []Metric{&countMetric{}} })
	e.Setup(func(s *Simulation) error { return s.CreateBlackHole(900, 500) })

	results, err := e.Run(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Ticks != 30 || r.Metrics["count"] != 30 {
			t.Errorf("run %d: ticks %d metric %f", i, r.Ticks, r.Metrics["count"])
		}
		if r.Final.BlackHole == nil {
			t.Errorf("run %d: setup hook not applied", i)
		}
	}
}
