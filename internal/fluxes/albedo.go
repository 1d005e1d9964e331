package fluxes

import (
	"math"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/grid"
)

// albedoFunc computes the albedo distribution for the current field.
// The returned slice is reused across calls.
type albedoFunc func(T ebm.State) ebm.State

// albedoBuilder constructs an albedo function from its parameters.
type albedoBuilder func(fn string, p Params, g *grid.Grid) (albedoFunc, error)

var albedoRegistry = map[string]albedoBuilder{
	"static":      newAlbedoStatic,
	"static_bud":  newAlbedoStaticBud,
	"dynamic_bud": newAlbedoDynamicBud,
	"smooth":      newAlbedoSmooth,
	"dynamic_sel": newAlbedoDynamicSel,
}

func resolveAlbedo(fn, name string, p Params, g *grid.Grid) (albedoFunc, error) {
	b, ok := albedoRegistry[name]
	if !ok {
		return nil, ebm.Configf(fn+".albedo", "unknown albedo function %q", name)
	}
	return b(fn, p, g)
}

// newAlbedoStatic returns a uniform albedo.
func newAlbedoStatic(fn string, p Params, g *grid.Grid) (albedoFunc, error) {
	alpha, err := p.Float(fn, "alpha")
	if err != nil {
		return nil, err
	}
	out := ebm.Uniform(g.Dim(), alpha)
	return func(ebm.State) ebm.State { return out }, nil
}

// newAlbedoStaticBud returns Budyko's three fixed latitude zones: the
// base value equatorward of border_1, +0.18 between the borders and
// +0.3 poleward of border_2.
func newAlbedoStaticBud(fn string, p Params, g *grid.Grid) (albedoFunc, error) {
	if g.Is0D() {
		return nil, ebm.Configf(fn+".albedo", "static_bud needs a latitude grid")
	}
	alphaP, err := p.Float(fn, "alpha_p")
	if err != nil {
		return nil, err
	}
	b1, err := p.FloatDef(fn, "border_1", 60)
	if err != nil {
		return nil, err
	}
	b2, err := p.FloatDef(fn, "border_2", 70)
	if err != nil {
		return nil, err
	}
	out := make(ebm.State, g.Dim())
	for i, lat := range g.Centers() {
		switch abs := math.Abs(lat); {
		case abs <= b1:
			out[i] = alphaP
		case abs <= b2:
			out[i] = alphaP + 0.18
		default:
			out[i] = alphaP + 0.3
		}
	}
	return func(ebm.State) ebm.State { return out }, nil
}

// newAlbedoDynamicBud returns Budyko's three-zone albedo with the zone
// transitions driven by the band temperature instead of latitude.
func newAlbedoDynamicBud(fn string, p Params, g *grid.Grid) (albedoFunc, error) {
	t1, err := p.FloatDef(fn, "t_1", 273.15)
	if err != nil {
		return nil, err
	}
	t2, err := p.FloatDef(fn, "t_2", 263.15)
	if err != nil {
		return nil, err
	}
	a0, err := p.FloatDef(fn, "alpha_0", 0.32)
	if err != nil {
		return nil, err
	}
	a1, err := p.FloatDef(fn, "alpha_1", 0.5)
	if err != nil {
		return nil, err
	}
	a2, err := p.FloatDef(fn, "alpha_2", 0.62)
	if err != nil {
		return nil, err
	}
	out := make(ebm.State, g.Dim())
	return func(T ebm.State) ebm.State {
		for i, t := range T {
			switch {
			case t > t1:
				out[i] = a0
			case t > t2:
				out[i] = a1
			default:
				out[i] = a2
			}
		}
		return out
	}, nil
}

// newAlbedoSmooth returns the tanh ice-albedo transition used by North:
// alpha = alpha_i - (alpha_i-alpha_f)/2 * (1 + tanh(gamma*(T - T_ref))).
func newAlbedoSmooth(fn string, p Params, g *grid.Grid) (albedoFunc, error) {
	tRef, err := p.FloatDef(fn, "t_ref", 273.15)
	if err != nil {
		return nil, err
	}
	alphaF, err := p.FloatDef(fn, "alpha_f", 0.3)
	if err != nil {
		return nil, err
	}
	alphaI, err := p.FloatDef(fn, "alpha_i", 0.7)
	if err != nil {
		return nil, err
	}
	steep, err := p.FloatDef(fn, "steepness", 0.3)
	if err != nil {
		return nil, err
	}
	out := make(ebm.State, g.Dim())
	return func(T ebm.State) ebm.State {
		for i, t := range T {
			out[i] = alphaI - 0.5*(alphaI-alphaF)*(1+math.Tanh(steep*(t-tRef)))
		}
		return out
	}, nil
}

// newAlbedoDynamicSel returns Sellers' linear temperature dependence with
// an elevation correction and a 0.85 cap. The zonal mean altitude z and
// the empirical offsets b are per-band distributions.
func newAlbedoDynamicSel(fn string, p Params, g *grid.Grid) (albedoFunc, error) {
	if g.Is0D() {
		return nil, ebm.Configf(fn+".albedo", "dynamic_sel needs a latitude grid")
	}
	z, err := p.Floats(fn, "z", g.Dim())
	if err != nil {
		return nil, err
	}
	b, err := p.Floats(fn, "b", g.Dim())
	if err != nil {
		return nil, err
	}
	out := make(ebm.State, g.Dim())
	return func(T ebm.State) ebm.State {
		for i, t := range T {
			tg := t - 0.0065*z[i]
			if tg < 283.16 {
				out[i] = b[i] - 0.009*tg
			} else {
				out[i] = b[i] - 2.548
			}
			if out[i] > 0.85 {
				out[i] = 0.85
			}
		}
		return out
	}, nil
}
