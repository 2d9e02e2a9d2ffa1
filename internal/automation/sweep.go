package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/metrics"
	"github.com/san-kum/solsim/internal/sim"
)

// SizeSweep spawns black holes of increasing size at the same spot and
// measures how much of the system each one destroys.
type SizeSweep struct {
	MinSize  int
	MaxSize  int
	Step     int
	X, Y     float64
	Ticks    int64
	Seed     int64
	Progress func(done, total int)
}

type SweepResult struct {
	Size          int     `json:"size"`
	ActivePlanets int     `json:"active_planets"`
	Absorbed      int     `json:"absorbed"`
	SunActive     bool    `json:"sun_active"`
	FinalRadius   float64 `json:"final_radius"`
	MaxDilation   float64 `json:"max_dilation"`
}

// RunSweep runs one simulation per size. Every run uses the same seed so the
// planets start from identical angles.
func RunSweep(ctx context.Context, base *config.Config, sweep SizeSweep) ([]SweepResult, error) {
	if sweep.Step <= 0 || sweep.MinSize <= 0 || sweep.MaxSize < sweep.MinSize {
		return nil, fmt.Errorf("invalid sweep range [%d,%d] step %d", sweep.MinSize, sweep.MaxSize, sweep.Step)
	}
	if sweep.Ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", sweep.Ticks)
	}

	total := (sweep.MaxSize-sweep.MinSize)/sweep.Step + 1
	results := make([]SweepResult, 0, total)

	for size := sweep.MinSize; size <= sweep.MaxSize; size += sweep.Step {
		cfg := *base
		cfg.Sim.Seed = sweep.Seed
		cfg.Sim.BlackHole.Size = size
		if size < cfg.Sim.BlackHole.Min {
			cfg.Sim.BlackHole.Min = size
		}
		if size > cfg.Sim.BlackHole.Max {
			cfg.Sim.BlackHole.Max = size
		}

		s, err := sim.New(&cfg)
		if err != nil {
			return nil, err
		}
		absorbed := metrics.NewAbsorbed()
		dilation := metrics.NewMaxTimeDilation()
		s.AddMetric(absorbed)
		s.AddMetric(dilation)

		if err := s.CreateBlackHole(sweep.X, sweep.Y); err != nil {
			return nil, err
		}
		result, err := s.Run(ctx, sweep.Ticks)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			Size:          size,
			ActivePlanets: result.Final.ActivePlanets(),
			Absorbed:      int(absorbed.Value()),
			SunActive:     result.Final.Sun.Active,
			FinalRadius:   result.Final.BlackHoleRadius(),
			MaxDilation:   dilation.Value(),
		})

		if sweep.Progress != nil {
			sweep.Progress(len(results), total)
		}
	}

	return results, nil
}
