package fluxes

import (
	"errors"
	"sort"
	"testing"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/grid"
)

func env0D(t *testing.T) *Env {
	t.Helper()
	g, err := grid.New(grid.Options{Resolution: 0})
	if err != nil {
		t.Fatal(err)
	}
	return &Env{Grid: g, Rec: ebm.NewRecorder(), StepSize: ebm.SecondsPerDay}
}

func env1D(t *testing.T, resolution float64) *Env {
	t.Helper()
	g, err := grid.New(grid.Options{Resolution: resolution, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatal(err)
	}
	return &Env{Grid: g, Rec: ebm.NewRecorder(), StepSize: ebm.SecondsPerDay}
}

func mustTerm(t *testing.T, name string, p Params, env *Env) Term {
	t.Helper()
	_, ctor, err := Resolve(name)
	if err != nil {
		t.Fatal(err)
	}
	term, err := ctor(p, env)
	if err != nil {
		t.Fatalf("construct %s: %v", name, err)
	}
	return term
}

func TestResolveKnown(t *testing.T) {
	tests := []struct {
		name string
		cat  Category
	}{
		{"flux_down.insolation", CategoryDown},
		{"flux_up.planck", CategoryUp},
		{"transfer.budyko", CategoryTransfer},
		{"forcing.co2_myhre", CategoryForcing},
	}
	for _, tt := range tests {
		cat, ctor, err := Resolve(tt.name)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if cat != tt.cat {
			t.Errorf("%s: expected category %s, got %s", tt.name, tt.cat, cat)
		}
		if ctor == nil {
			t.Errorf("%s: nil constructor", tt.name)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	_, _, err := Resolve("flux_down.nonexistent")
	if !errors.Is(err, ebm.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != len(registry) {
		t.Fatalf("expected %d names, got %d", len(registry), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Error("names should be sorted")
	}
}

func TestTermIdentity(t *testing.T) {
	term := mustTerm(t, "flux_up.planck", Params{}, env0D(t))
	if term.Name() != "flux_up.planck" {
		t.Errorf("unexpected name %q", term.Name())
	}
	if term.Category() != CategoryUp {
		t.Errorf("unexpected category %q", term.Category())
	}
}

func TestParamsGetters(t *testing.T) {
	p := Params{
		"f":    1.5,
		"i":    3,
		"b":    true,
		"s":    "hello",
		"list": []any{1.0, 2.0},
		"sub":  map[string]any{"alpha": 0.3},
	}

	if v, err := p.Float("fn", "f"); err != nil || v != 1.5 {
		t.Errorf("Float: %v, %v", v, err)
	}
	if v, err := p.FloatDef("fn", "missing", 7); err != nil || v != 7 {
		t.Errorf("FloatDef: %v, %v", v, err)
	}
	if v, err := p.IntDef("fn", "i", 0); err != nil || v != 3 {
		t.Errorf("IntDef: %v, %v", v, err)
	}
	if v, err := p.BoolDef("fn", "b", false); err != nil || !v {
		t.Errorf("BoolDef: %v, %v", v, err)
	}
	if v, err := p.Str("fn", "s"); err != nil || v != "hello" {
		t.Errorf("Str: %v, %v", v, err)
	}
	if v, err := p.Floats("fn", "list", 2); err != nil || len(v) != 2 {
		t.Errorf("Floats: %v, %v", v, err)
	}
	if sub, err := p.Sub("fn", "sub"); err != nil || len(sub) != 1 {
		t.Errorf("Sub: %v, %v", sub, err)
	}

	if _, err := p.Float("fn", "missing"); !errors.Is(err, ebm.ErrConfiguration) {
		t.Errorf("missing required: expected configuration error, got %v", err)
	}
	if _, err := p.Float("fn", "s"); !errors.Is(err, ebm.ErrConfiguration) {
		t.Errorf("wrong type: expected configuration error, got %v", err)
	}
	if _, err := p.Floats("fn", "list", 3); !errors.Is(err, ebm.ErrConfiguration) {
		t.Errorf("wrong length: expected configuration error, got %v", err)
	}
}
