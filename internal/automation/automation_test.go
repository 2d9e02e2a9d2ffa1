package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
)

const script = `
name: swallow the sun
preset: classic
seed: 9
ticks: 30
actions:
  - at: 0
    action: speed
    value: 2
  - at: 0
    action: resize
    value: 100
  - at: 5
    action: save
  - at: 10
    action: spawn
    x: 750
    y: 535
  - at: 20
    action: load
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "swallow the sun" || sc.Ticks != 30 || len(sc.Actions) != 5 {
		t.Errorf("unexpected scenario %+v", sc)
	}
	if sc.Actions[3].X != 750 || sc.Actions[3].Action != ActionSpawn {
		t.Errorf("unexpected spawn action %+v", sc.Actions[3])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
	}{
		{"no ticks", Scenario{}},
		{"unknown preset", Scenario{Ticks: 5, Preset: "nope"}},
		{"late action", Scenario{Ticks: 5, Actions: []Action{{At: 5, Action: ActionReset}}}},
		{"unknown action", Scenario{Ticks: 5, Actions: []Action{{Action: "explode"}}}},
		{"bad speed", Scenario{Ticks: 5, Actions: []Action{{Action: ActionSpeed}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sc.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}

	var events []sim.Event
	dir := t.TempDir()
	rec := storage.NewRecorder(1)
	runner := &Runner{
		Dir:       dir,
		Observers: []sim.Observer{sim.ObserverFunc(func(e sim.Event) { events = append(events, e) })},
		Recorder:  rec,
	}

	report, err := runner.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected failures %v", report.Failed)
	}
	if len(report.Applied) != 5 {
		t.Errorf("expected 5 applied actions, got %v", report.Applied)
	}
	if report.Result.Ticks != 30 {
		t.Errorf("expected 30 ticks, got %d", report.Result.Ticks)
	}
	if len(rec.Samples()) != 30 {
		t.Errorf("expected 30 samples, got %d", len(rec.Samples()))
	}

	// the sun was swallowed after tick 10, then the pre-spawn save was loaded
	final := report.Result.Final
	if !final.Sun.Active || final.BlackHole != nil {
		t.Errorf("load should restore the pre-spawn state, got sun=%v bh=%v", final.Sun.Active, final.BlackHole)
	}
	if final.Speed != 2 || final.SpawnSize != 50 {
		t.Errorf("unexpected speed %v spawn %d", final.Speed, final.SpawnSize)
	}

	kinds := make(map[sim.EventKind]bool)
	for _, e := range events {
		kinds[e.Kind] = true
	}
	for _, k := range []sim.EventKind{sim.EventSpeed, sim.EventBlackHoleCreated, sim.EventSunAbsorbed, sim.EventRestored} {
		if !kinds[k] {
			t.Errorf("missing %s event", k)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, config.DefaultStateFile)); err != nil {
		t.Errorf("state file not written: %v", err)
	}
}

func TestRunScenarioFailedLoadContinues(t *testing.T) {
	sc := &Scenario{Ticks: 10, Actions: []Action{{At: 2, Action: ActionLoad, File: "missing.json"}}}
	runner := &Runner{Dir: t.TempDir()}

	report, err := runner.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed) != 1 {
		t.Errorf("expected 1 failure, got %v", report.Failed)
	}
	if report.Result.Ticks != 10 {
		t.Errorf("run should continue after a failed load, got %d ticks", report.Result.Ticks)
	}
}

func TestScenarioConfig(t *testing.T) {
	sc := &Scenario{Preset: "inner", Seed: 4}
	base := config.DefaultConfig()
	base.Sim.FPS = 30

	cfg := sc.Config(base)
	if len(cfg.Planets) != 4 || cfg.Sim.Seed != 4 || cfg.Sim.FPS != 30 {
		t.Errorf("unexpected config %+v", cfg.Sim)
	}
	if base.Sim.Seed == 4 {
		t.Error("base config was modified")
	}
}

func TestRunSweep(t *testing.T) {
	var calls int
	results, err := RunSweep(context.Background(), config.DefaultConfig(), SizeSweep{
		MinSize: 10, MaxSize: 30, Step: 10,
		X: 750, Y: 535, Ticks: 5, Seed: 1,
		Progress: func(done, total int) { calls++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || calls != 3 {
		t.Fatalf("expected 3 results and 3 progress calls, got %d and %d", len(results), calls)
	}
	for _, r := range results {
		if r.SunActive {
			t.Errorf("size %d: a black hole on the sun should swallow it", r.Size)
		}
		if r.FinalRadius < float64(r.Size)*1.5 {
			t.Errorf("size %d: radius %f did not grow", r.Size, r.FinalRadius)
		}
	}

	if _, err := RunSweep(context.Background(), config.DefaultConfig(), SizeSweep{MinSize: 10, MaxSize: 5, Step: 1, Ticks: 1}); err == nil {
		t.Error("expected error for inverted range")
	}
}
