package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/sim"
)

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Sim.Seed = 5
	s, err := sim.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStateFormat(t *testing.T) {
	snap := sim.Snapshot{
		Sun:       sim.SunState{Active: true, X: 750, Y: 535},
		BlackHole: &sim.BlackHoleState{X: 100, Y: 200, Radius: 25},
		Planets:   []sim.PlanetState{{Distance: 65, Angle: 12.5, Active: true}, {Distance: 95, Angle: 300, Active: false}},
	}
	now := time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC)

	data, err := json.Marshal(NewState(snap, now))
	if err != nil {
		t.Fatal(err)
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatal(err)
	}
	if generic["timestamp"] != "2024-03-01 10:20:30.123456" {
		t.Errorf("unexpected timestamp %v", generic["timestamp"])
	}
	planets := generic["planets"].([]any)
	first := planets[0].([]any)
	if len(first) != 3 || first[0] != 65.0 || first[1] != 12.5 || first[2] != true {
		t.Errorf("unexpected planet tuple %v", first)
	}
	bh := generic["black_hole"].(map[string]any)
	if bh["exists"] != true || bh["radius"] != 25.0 {
		t.Errorf("unexpected black hole %v", bh)
	}
	sun := generic["sun"].(map[string]any)
	if sun["active"] != true || sun["x"] != 750.0 {
		t.Errorf("unexpected sun %v", sun)
	}
}

func TestStateWithoutBlackHole(t *testing.T) {
	st := NewState(sim.Snapshot{}, time.Now())
	if st.BlackHole == nil || st.BlackHole.Exists {
		t.Error("expected an explicit non-existent black hole")
	}
	if st.Snapshot().BlackHole != nil {
		t.Error("non-existent black hole should not come back")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newSim(t)
	if err := s.CreateBlackHole(321.5, 222.25); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		if _, err := s.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	s.Planets()[6].Active = false
	saved := s.Snapshot()

	path := filepath.Join(t.TempDir(), config.DefaultStateFile)
	if err := SaveState(path, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	for i := 0; i < 40; i++ {
		if _, err := s.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	s.Reset()

	st, err := LoadState(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Restore(st.Snapshot()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := s.Snapshot()

	if got.Sun.Active != saved.Sun.Active || got.Sun.X != saved.Sun.X || got.Sun.Y != saved.Sun.Y {
		t.Errorf("sun: got %+v, want %+v", got.Sun, saved.Sun)
	}
	if got.BlackHole == nil || got.BlackHole.X != saved.BlackHole.X || got.BlackHole.Y != saved.BlackHole.Y || got.BlackHole.Radius != saved.BlackHole.Radius {
		t.Errorf("black hole: got %+v, want %+v", got.BlackHole, saved.BlackHole)
	}
	for i := range saved.Planets {
		a, b := saved.Planets[i], got.Planets[i]
		if a.Distance != b.Distance || a.Angle != b.Angle || a.Active != b.Active {
			t.Errorf("planet %d: got (%v,%v,%v), want (%v,%v,%v)", i, b.Distance, b.Angle, b.Active, a.Distance, a.Angle, a.Active)
		}
	}
}

func TestLoadStateErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name      string
		path      string
		malformed bool
	}{
		{"missing file", filepath.Join(dir, "nope.json"), false},
		{"not json", write("garbage.json", "{not json"), false},
		{"missing sun", write("nosun.json", `{"black_hole":{"exists":false},"planets":[]}`), true},
		{"missing planets", write("noplanets.json", `{"black_hole":{"exists":false},"sun":{"active":true,"x":1,"y":2}}`), true},
		{"short tuple", write("short.json", `{"black_hole":{"exists":false},"planets":[[1,2]],"sun":{"active":true,"x":1,"y":2}}`), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadState(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.malformed != errors.Is(err, ErrMalformedState) {
				t.Errorf("errors.Is(ErrMalformedState) = %v for %v", !tt.malformed, err)
			}
		})
	}
}

func TestLoadLegacyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	body := `{"timestamp": "2024-05-01 12:00:00.000001", "black_hole": {"exists": false, "x": 0, "y": 0, "radius": 0}, "planets": [[65, 10.5, true], [95, 200, false]], "sun": {"active": true, "x": 750, "y": 535}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	snap := st.Snapshot()
	if len(snap.Planets) != 2 || snap.Planets[1].Active || snap.Planets[0].Angle != 10.5 {
		t.Errorf("unexpected planets %+v", snap.Planets)
	}
	if snap.BlackHole != nil {
		t.Error("expected no black hole")
	}
}

func TestFailedRestoreKeepsState(t *testing.T) {
	s := newSim(t)
	path := filepath.Join(t.TempDir(), "state.json")
	body := `{"black_hole":{"exists":true,"x":5,"y":5,"radius":20},"planets":[[65,1,true]],"sun":{"active":false,"x":0,"y":0}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Restore(st.Snapshot()); !errors.Is(err, sim.ErrPlanetCount) {
		t.Fatalf("expected ErrPlanetCount, got %v", err)
	}
	if s.BlackHole() != nil || !s.Sun().Active {
		t.Error("failed restore should not touch the simulation")
	}
}

func TestSaveStateLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := SaveState(filepath.Join(dir, "a.json"), newSim(t).Snapshot()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".state-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 file, got %d", len(entries))
	}
}
