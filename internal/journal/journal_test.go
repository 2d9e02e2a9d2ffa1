package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/sim"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "solsim.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTemp(t)

	events := []sim.Event{
		{Kind: sim.EventBlackHoleCreated, Tick: 1, X: 10, Y: 20, Value: 20},
		{Kind: sim.EventCollision, Tick: 5, Body: "Earth", Other: "Mars", X: 1, Y: 2},
		{Kind: sim.EventAbsorbed, Tick: 9, Body: "Venus"},
	}
	for _, e := range events {
		if err := j.Record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	all, err := j.Recent(10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Event.Kind != sim.EventAbsorbed || all[0].Event.Body != "Venus" {
		t.Errorf("expected newest first, got %+v", all[0].Event)
	}
	if all[0].Session != j.Session() {
		t.Errorf("unexpected session %q", all[0].Session)
	}

	collisions, err := j.Recent(10, sim.EventCollision)
	if err != nil {
		t.Fatal(err)
	}
	if len(collisions) != 1 || collisions[0].Event != events[1] {
		t.Errorf("unexpected collisions %+v", collisions)
	}

	limited, err := j.Recent(2, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit 2, got %d", len(limited))
	}
}

func TestCounts(t *testing.T) {
	j := openTemp(t)
	for _, k := range []sim.EventKind{sim.EventSpeed, sim.EventSpeed, sim.EventReset} {
		j.OnEvent(sim.Event{Kind: k})
	}

	counts, err := j.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if counts[sim.EventSpeed] != 2 || counts[sim.EventReset] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestJournalObservesSimulation(t *testing.T) {
	j := openTemp(t)
	cfg := config.DefaultConfig()
	cfg.Sim.Seed = 3

	s, err := sim.New(cfg, sim.WithObserver(j))
	if err != nil {
		t.Fatal(err)
	}
	sun := s.Sun()
	if err := s.CreateBlackHole(sun.Pos.X, sun.Pos.Y); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	entries, err := j.Recent(1, sim.EventSunAbsorbed)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Event.Tick != 1 {
		t.Errorf("expected sun_absorbed at tick 1, got %+v", entries)
	}
}
