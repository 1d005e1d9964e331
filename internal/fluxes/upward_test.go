package fluxes

import (
	"errors"
	"math"
	"testing"

	"github.com/klimalab/ebmsim/internal/ebm"
)

func TestPlanckEmission(t *testing.T) {
	env := env0D(t)
	term := mustTerm(t, "flux_up.planck", Params{}, env)

	out, err := term.Eval(0, ebm.State{255})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	want := -ebm.StefanBoltzmann * math.Pow(255, 4)
	if math.Abs(out[0]-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, out[0])
	}
	if out[0] >= 0 {
		t.Error("upward flux must be negative")
	}
}

func TestPlanckGreyFactor(t *testing.T) {
	env := env0D(t)
	full := mustTerm(t, "flux_up.planck", Params{}, env)
	grey := mustTerm(t, "flux_up.planck", Params{"grey": 0.5}, env)

	a, _ := full.Eval(0, ebm.State{288})
	b, _ := grey.Eval(0, ebm.State{288})
	if math.Abs(b[0]-0.5*a[0]) > 1e-9 {
		t.Errorf("grey=0.5 should halve the emission: %f vs %f", b[0], a[0])
	}
}

func TestBudykoNoClouds(t *testing.T) {
	env := env0D(t)
	term := mustTerm(t, "flux_up.budyko_noclouds", Params{"a": 203.3, "b": 2.09}, env)

	// At the freezing point the linearization reduces to -A.
	out, err := term.Eval(0, ebm.State{273.15})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if math.Abs(out[0]+203.3) > 1e-9 {
		t.Errorf("expected -203.3, got %f", out[0])
	}

	out, _ = term.Eval(0, ebm.State{283.15})
	if math.Abs(out[0]+(203.3+2.09*10)) > 1e-9 {
		t.Errorf("expected %f, got %f", -(203.3 + 2.09*10), out[0])
	}
}

func TestBudykoNoCloudsRequiredParams(t *testing.T) {
	env := env0D(t)
	_, ctor, _ := Resolve("flux_up.budyko_noclouds")
	if _, err := ctor(Params{"a": 203.3}, env); !errors.Is(err, ebm.ErrConfiguration) {
		t.Errorf("expected configuration error for missing b, got %v", err)
	}
}

func TestBudykoClouds(t *testing.T) {
	env := env0D(t)
	p := Params{"a": 223.0, "b": 2.2, "a1": 47.0, "b1": 1.6, "f_c": 0.5}
	term := mustTerm(t, "flux_up.budyko_clouds", p, env)

	out, err := term.Eval(0, ebm.State{283.15})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	tc := 10.0
	want := -((223.0 + 2.2*tc) - 0.5*(47.0+1.6*tc))
	if math.Abs(out[0]-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, out[0])
	}
}

func TestSellersUpDampedEmission(t *testing.T) {
	env := env0D(t)
	sellers := mustTerm(t, "flux_up.sellers", Params{}, env)
	planck := mustTerm(t, "flux_up.planck", Params{}, env)

	s, err := sellers.Eval(0, ebm.State{288})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	p, _ := planck.Eval(0, ebm.State{288})

	if s[0] >= 0 {
		t.Error("upward flux must be negative")
	}
	// The water-vapour damping keeps Sellers' emission below blackbody.
	if math.Abs(s[0]) >= math.Abs(p[0]) {
		t.Errorf("damped emission %f should be weaker than blackbody %f", s[0], p[0])
	}
}
