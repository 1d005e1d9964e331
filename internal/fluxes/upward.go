package fluxes

import (
	"math"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// Upward fluxes return negative values: they remove energy from the
// column, so the composer sums them without sign handling.

// planck is the grey-body Stefan-Boltzmann emission -eps*sigma*T^4.
type planck struct {
	base
	eps, sigma float64
	out        ebm.State
}

func newPlanck(p Params, env *Env) (Term, error) {
	t := &planck{base: base{name: "flux_up.planck", cat: CategoryUp}, out: make(ebm.State, env.Grid.Dim())}
	var err error
	if t.eps, err = p.FloatDef(t.name, "grey", 1); err != nil {
		return nil, err
	}
	if t.sigma, err = p.FloatDef(t.name, "sigma", ebm.StefanBoltzmann); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *planck) Eval(_ float64, T ebm.State) (ebm.State, error) {
	for i, v := range T {
		t.out[i] = -t.eps * t.sigma * v * v * v * v
	}
	return t.out, nil
}

// budykoNoClouds is Budyko's linearized emission -(A + B*(T-273.15)),
// with A and B fitted in Celsius.
type budykoNoClouds struct {
	base
	a, b float64
	out  ebm.State
}

func newBudykoNoClouds(p Params, env *Env) (Term, error) {
	t := &budykoNoClouds{base: base{name: "flux_up.budyko_noclouds", cat: CategoryUp}, out: make(ebm.State, env.Grid.Dim())}
	var err error
	if t.a, err = p.Float(t.name, "a"); err != nil {
		return nil, err
	}
	if t.b, err = p.Float(t.name, "b"); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *budykoNoClouds) Eval(_ float64, T ebm.State) (ebm.State, error) {
	for i, v := range T {
		t.out[i] = -(t.a + t.b*(v-273.15))
	}
	return t.out, nil
}

// budykoClouds extends the linearization with a cloud-cover correction:
// -((A + B*Tc) - fc*(A1 + B1*Tc)).
type budykoClouds struct {
	base
	a, b, a1, b1, fc float64
	out              ebm.State
}

func newBudykoClouds(p Params, env *Env) (Term, error) {
	t := &budykoClouds{base: base{name: "flux_up.budyko_clouds", cat: CategoryUp}, out: make(ebm.State, env.Grid.Dim())}
	for _, f := range []struct {
		key string
		dst *float64
	}{{"a", &t.a}, {"b", &t.b}, {"a1", &t.a1}, {"b1", &t.b1}, {"f_c", &t.fc}} {
		v, err := p.Float(t.name, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return t, nil
}

func (t *budykoClouds) Eval(_ float64, T ebm.State) (ebm.State, error) {
	for i, v := range T {
		tc := v - 273.15
		t.out[i] = -((t.a + t.b*tc) - t.fc*(t.a1+t.b1*tc))
	}
	return t.out, nil
}

// sellersUp is Sellers' adjusted grey-body emission
// -eps*sigma*T^4*(1 - m*tanh(gamma*T^6)).
type sellersUp struct {
	base
	m, sigma, gamma, eps float64
	out                  ebm.State
}

func newSellersUp(p Params, env *Env) (Term, error) {
	t := &sellersUp{base: base{name: "flux_up.sellers", cat: CategoryUp}, out: make(ebm.State, env.Grid.Dim())}
	var err error
	if t.m, err = p.FloatDef(t.name, "m", 0.5); err != nil {
		return nil, err
	}
	if t.sigma, err = p.FloatDef(t.name, "sigma", ebm.StefanBoltzmann); err != nil {
		return nil, err
	}
	if t.gamma, err = p.FloatDef(t.name, "gamma", 1.9e-15); err != nil {
		return nil, err
	}
	if t.eps, err = p.FloatDef(t.name, "grey", 1); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *sellersUp) Eval(_ float64, T ebm.State) (ebm.State, error) {
	for i, v := range T {
		t.out[i] = -t.eps * t.sigma * math.Pow(v, 4) * (1 - t.m*math.Tanh(t.gamma*math.Pow(v, 6)))
	}
	return t.out, nil
}
