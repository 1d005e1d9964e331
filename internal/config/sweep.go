package config

import (
	"context"
	"math"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/rk4"
)

// SweepParam is one swept axis: a parameter of the function at index
// Func in the configuration, tried at each of Values. A Func of -1
// targets the equation-level heat capacity instead of a function
// parameter.
type SweepParam struct {
	Func   int
	Key    string
	Values []float64
}

// Sweep enumerates the Cartesian product of its parameter axes over a
// base configuration. Used to tune flux parameters against an observed
// quantity, e.g. the Budyko b coefficient against a target mean
// temperature.
type Sweep struct {
	base   *Config
	params []SweepParam
}

func NewSweep(base *Config, params ...SweepParam) *Sweep {
	return &Sweep{base: base, params: params}
}

// Configs materializes one configuration per grid point.
func (s *Sweep) Configs() ([]*Config, error) {
	for _, p := range s.params {
		if p.Func != -1 && (p.Func < 0 || p.Func >= len(s.base.Funcs)) {
			return nil, ebm.Configf("sweep", "function index %d out of range", p.Func)
		}
		if len(p.Values) == 0 {
			return nil, ebm.Configf("sweep", "axis %q has no values", p.Key)
		}
	}
	var out []*Config
	s.expand(0, s.base, &out)
	return out, nil
}

func (s *Sweep) expand(depth int, cfg *Config, out *[]*Config) {
	if depth == len(s.params) {
		*out = append(*out, cfg.Clone())
		return
	}
	p := s.params[depth]
	for _, v := range p.Values {
		c := cfg.Clone()
		if p.Func == -1 {
			c.EqParam.CAo = v
		} else {
			if c.Funcs[p.Func].Params == nil {
				c.Funcs[p.Func].Params = map[string]any{}
			}
			c.Funcs[p.Func].Params[p.Key] = v
		}
		s.expand(depth+1, c, out)
	}
}

// Search runs every grid point and returns the configuration minimizing
// score, alongside its run result. Runs are sequential; grid points
// that fail to build or integrate are skipped.
func (s *Sweep) Search(ctx context.Context, score func(*ebm.Result) float64) (*Config, *ebm.Result, error) {
	cfgs, err := s.Configs()
	if err != nil {
		return nil, nil, err
	}

	best := math.Inf(1)
	var bestCfg *Config
	var bestRes *ebm.Result
	for _, cfg := range cfgs {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		run, err := cfg.Build()
		if err != nil {
			continue
		}
		res, err := rk4.New().Run(ctx, run.Equation, run.Time0, run.Initial, run.RK4)
		if err != nil {
			continue
		}
		if v := score(res); v < best {
			best, bestCfg, bestRes = v, cfg, res
		}
	}
	if bestCfg == nil {
		return nil, nil, ebm.Configf("sweep", "no grid point produced a complete run")
	}
	return bestCfg, bestRes, nil
}
