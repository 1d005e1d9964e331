package config

import (
	"context"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/rk4"
)

// Ensemble runs independent variations of a base configuration in
// parallel. Every member is built from its own Config copy, so grids,
// recorders and term state are never shared between goroutines.
type Ensemble struct {
	base      *Config
	numRuns   int
	seedStart int64

	// Vary mutates member idx's config copy before it is built. When
	// nil, members differ only by their initial-noise seed.
	Vary func(idx int, cfg *Config)
}

func NewEnsemble(base *Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: base, numRuns: numRuns, seedStart: seedStart}
}

// Clone deep-copies the configuration, including nested parameter maps.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

// Run executes all members and returns their results in member order.
// The first build or integration error aborts the ensemble.
func (e *Ensemble) Run(ctx context.Context) ([]*ebm.Result, error) {
	results := make([]*ebm.Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.base.Clone()
			cfg.Initials.Seed = e.seedStart + int64(idx)
			if e.Vary != nil {
				e.Vary(idx, cfg)
			}

			run, err := cfg.Build()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = rk4.New().Run(ctx, run.Equation, run.Time0, run.Initial, run.RK4)
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
