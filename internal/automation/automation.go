package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/metrics"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
)

// Action kinds a scenario can schedule.
const (
	ActionSpeed          = "speed"
	ActionSpawn          = "spawn"
	ActionResize         = "resize"
	ActionResetBlackHole = "reset_black_hole"
	ActionReset          = "reset"
	ActionSave           = "save"
	ActionLoad           = "load"
)

// Scenario is a scripted sequence of user actions replayed against a
// simulation.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Preset      string   `yaml:"preset"`
	Seed        int64    `yaml:"seed"`
	Ticks       int64    `yaml:"ticks"`
	Actions     []Action `yaml:"actions"`
}

// Action fires once At ticks have run.
type Action struct {
	At     int64   `yaml:"at"`
	Action string  `yaml:"action"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Value  float64 `yaml:"value"`
	File   string  `yaml:"file"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", s.Ticks)
	}
	if s.Preset != "" && config.GetPreset(s.Preset) == nil {
		return fmt.Errorf("unknown preset %q", s.Preset)
	}
	for i, a := range s.Actions {
		if a.At < 0 || a.At >= s.Ticks {
			return fmt.Errorf("action %d: tick %d outside [0,%d)", i+1, a.At, s.Ticks)
		}
		switch a.Action {
		case ActionSpeed:
			if a.Value <= 0 {
				return fmt.Errorf("action %d: speed must be positive", i+1)
			}
		case ActionSpawn, ActionResize, ActionResetBlackHole, ActionReset, ActionSave, ActionLoad:
		default:
			return fmt.Errorf("action %d: unknown action %q", i+1, a.Action)
		}
	}
	return nil
}

// Config resolves the scenario's preset on top of base. A nil base starts
// from the defaults.
func (s *Scenario) Config(base *config.Config) *config.Config {
	cfg := config.DefaultConfig()
	if base != nil {
		c := *base
		cfg = &c
	}
	if p, ok := config.Presets[s.Preset]; ok {
		p.Apply(cfg)
	}
	if s.Seed != 0 {
		cfg.Sim.Seed = s.Seed
	}
	return cfg
}

// Report is the outcome of a scenario run.
type Report struct {
	Result  *sim.Result
	Applied []string
	Failed  []error
}

// Runner replays scenarios. Save and load actions resolve relative file
// names against Dir.
type Runner struct {
	Base      *config.Config
	Dir       string
	Log       hclog.Logger
	Observers []sim.Observer
	Recorder  *storage.Recorder
}

func (r *Runner) logger() hclog.Logger {
	if r.Log == nil {
		return hclog.NewNullLogger()
	}
	return r.Log
}

// Run executes the scenario. Failed actions are logged and reported but do
// not stop the run.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) (*Report, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	log := r.logger().Named("script")

	opts := []sim.Option{sim.WithLogger(r.logger().Named("sim"))}
	for _, o := range r.Observers {
		opts = append(opts, sim.WithObserver(o))
	}
	s, err := sim.New(scenario.Config(r.Base), opts...)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	actions := append([]Action(nil), scenario.Actions...)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].At < actions[j].At })

	report := &Report{}
	next := 0
	fire := func(elapsed int64) {
		for next < len(actions) && actions[next].At <= elapsed {
			a := actions[next]
			next++
			if err := r.apply(s, a); err != nil {
				log.Error("action failed", "tick", elapsed, "action", a.Action, "error", err)
				report.Failed = append(report.Failed, fmt.Errorf("tick %d %s: %w", a.At, a.Action, err))
				continue
			}
			log.Info("action applied", "tick", elapsed, "action", a.Action)
			report.Applied = append(report.Applied, fmt.Sprintf("%d:%s", a.At, a.Action))
		}
	}

	fire(0)
	result, err := s.RunWithCallback(ctx, scenario.Ticks, func(f *sim.FrameReport) bool {
		if r.Recorder != nil {
			r.Recorder.Record(s.Snapshot())
		}
		fire(f.Tick)
		return true
	})
	report.Result = result
	return report, err
}

func (r *Runner) apply(s *sim.Simulation, a Action) error {
	switch a.Action {
	case ActionSpeed:
		return s.SetSpeed(a.Value)
	case ActionSpawn:
		return s.CreateBlackHole(a.X, a.Y)
	case ActionResize:
		s.ChangeBlackHoleSize(int(a.Value))
	case ActionResetBlackHole:
		s.ResetBlackHole()
	case ActionReset:
		s.Reset()
	case ActionSave:
		return storage.SaveState(r.path(a.File), s.Snapshot())
	case ActionLoad:
		st, err := storage.LoadState(r.path(a.File))
		if err != nil {
			return err
		}
		return s.Restore(st.Snapshot())
	}
	return nil
}

func (r *Runner) path(file string) string {
	if file == "" {
		file = config.DefaultStateFile
	}
	if filepath.IsAbs(file) || r.Dir == "" {
		return file
	}
	return filepath.Join(r.Dir, file)
}
