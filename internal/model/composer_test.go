package model

import (
	"errors"
	"math"
	"testing"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/fluxes"
	"github.com/klimalab/ebmsim/internal/grid"
)

func testEnv(t *testing.T, resolution float64) *fluxes.Env {
	t.Helper()
	g, err := grid.New(grid.Options{
		Resolution:      resolution,
		BothHemispheres: resolution != 0,
		Belt:            resolution != 0,
	})
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return &fluxes.Env{Grid: g, Rec: ebm.NewRecorder(), StepSize: ebm.SecondsPerDay}
}

func greybodySpecs() []FuncSpec {
	return []FuncSpec{
		{Func: "flux_down.insolation", Params: fluxes.Params{
			"q": 342.0, "albedoparam": map[string]any{"alpha": 0.3},
		}},
		{Func: "flux_up.planck", Params: fluxes.Params{}},
	}
}

func TestComposeGreybody(t *testing.T) {
	env := testEnv(t, 0)
	eq, err := Compose(greybodySpecs(), EqParams{HeatCapacity: 70 * 4.2e6}, env)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if eq.Dim() != 1 {
		t.Fatalf("dim: got %d, want 1", eq.Dim())
	}

	T := ebm.State{288}
	out, err := eq.Eval(0, T)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	want := (0.7*342 - ebm.StefanBoltzmann*math.Pow(288, 4)) / (70 * 4.2e6)
	if math.Abs(out[0]-want) > math.Abs(want)*1e-12 {
		t.Errorf("tendency: got %g, want %g", out[0], want)
	}
}

func TestComposeHeatCapacity(t *testing.T) {
	env := testEnv(t, 0)
	for _, c := range []float64{0, -1} {
		if _, err := Compose(greybodySpecs(), EqParams{HeatCapacity: c}, env); !errors.Is(err, ebm.ErrConfiguration) {
			t.Errorf("C=%g: expected configuration error, got %v", c, err)
		}
	}
}

func TestComposeUnknownFunction(t *testing.T) {
	env := testEnv(t, 0)
	specs := append(greybodySpecs(), FuncSpec{Func: "flux_up.newtonian"})
	if _, err := Compose(specs, EqParams{HeatCapacity: 1}, env); !errors.Is(err, ebm.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestComposeCategoryCounts(t *testing.T) {
	cases := []struct {
		name  string
		res   float64
		specs []FuncSpec
	}{
		{"second downward", 0, append(greybodySpecs(),
			FuncSpec{Func: "flux_down.insolation", Params: fluxes.Params{"albedoparam": map[string]any{"alpha": 0.3}}})},
		{"second upward", 0, append(greybodySpecs(),
			FuncSpec{Func: "flux_up.budyko_noclouds", Params: fluxes.Params{"a": 203.3, "b": 2.09}})},
		{"missing downward", 0, greybodySpecs()[1:]},
		{"missing upward", 0, greybodySpecs()[:1]},
		{"second transfer", 10, append(budykoSpecs(),
			FuncSpec{Func: "transfer.budyko", Params: fluxes.Params{}})},
		{"resolved grid without transfer", 10, greybodySpecs()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := testEnv(t, tc.res)
			if _, err := Compose(tc.specs, EqParams{HeatCapacity: 1}, env); !errors.Is(err, ebm.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func budykoSpecs() []FuncSpec {
	return append(greybodySpecs(), FuncSpec{Func: "transfer.budyko", Params: fluxes.Params{}})
}

func TestComposeResolvedGrid(t *testing.T) {
	env := testEnv(t, 10)
	eq, err := Compose(budykoSpecs(), EqParams{HeatCapacity: 70 * 4.2e6}, env)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if eq.Dim() != 18 {
		t.Errorf("dim: got %d, want 18", eq.Dim())
	}
}

func TestTermsOrder(t *testing.T) {
	env := testEnv(t, 10)
	specs := append(budykoSpecs(), FuncSpec{Func: "forcing.random", Params: fluxes.Params{
		"start": 0.0, "stop": 10.0, "steps": 1.0, "strength": 1.0,
	}})
	eq, err := Compose(specs, EqParams{HeatCapacity: 1}, env)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	want := []string{ebm.DiagRdown, ebm.DiagRup, ebm.DiagTransfer, "forcing0"}
	got := eq.Terms()
	if len(got) != len(want) {
		t.Fatalf("terms: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("term %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEvalDiagnostics(t *testing.T) {
	env := testEnv(t, 0)
	eq, err := Compose(greybodySpecs(), EqParams{HeatCapacity: 1}, env)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	// Disarmed evaluations leave the buffer alone.
	if _, err := eq.Eval(0, ebm.State{288}); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if n := env.Rec.Len(ebm.DiagRdown); n != 0 {
		t.Fatalf("disarmed recorder grew to %d entries", n)
	}

	env.Rec.Arm()
	if _, err := eq.Eval(0, ebm.State{288}); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	for _, name := range eq.Terms() {
		if n := env.Rec.Len(name); n != 1 {
			t.Errorf("%s: got %d entries, want 1", name, n)
		}
	}

	rdown := env.Rec.Series()[ebm.DiagRdown][0]
	if got, want := rdown[0], 0.7*342.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("recorded Rdown: got %g, want %g", got, want)
	}
}

func TestEvalNonFiniteTerm(t *testing.T) {
	env := testEnv(t, 0)
	eq, err := Compose(greybodySpecs(), EqParams{HeatCapacity: 1}, env)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	// A non-finite temperature drives the Planck term to NaN/Inf.
	_, err = eq.Eval(0, ebm.State{math.Inf(1)})
	if !errors.Is(err, ebm.ErrNumerical) {
		t.Fatalf("expected numerical error, got %v", err)
	}
	var ne *ebm.NumericalError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NumericalError, got %T", err)
	}
	if ne.Term != "flux_up.planck" {
		t.Errorf("offending term: got %q, want flux_up.planck", ne.Term)
	}
}
