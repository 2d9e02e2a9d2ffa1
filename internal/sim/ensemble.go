package sim

import (
	"context"
	"sync"

	"github.com/san-kum/solsim/internal/config"
)

// Ensemble runs the same configuration under consecutive seeds, one
// goroutine per run. Each run gets its own Simulation and metrics.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	metrics   func() []Metric
	setup     func(*Simulation) error
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, metrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

// Setup registers a hook applied to every run before it starts, e.g. to
// spawn a black hole.
func (e *Ensemble) Setup(fn func(*Simulation) error) { e.setup = fn }

func (e *Ensemble) Run(ctx context.Context, ticks int64) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := *e.cfg
			cfgCopy.Sim.Seed = e.seedStart + int64(idx)

			s, err := New(&cfgCopy)
			if err != nil {
				errs[idx] = err
				return
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			if e.setup != nil {
				if err := e.setup(s); err != nil {
					errs[idx] = err
					return
				}
			}

			results[idx], errs[idx] = s.Run(ctx, ticks)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
