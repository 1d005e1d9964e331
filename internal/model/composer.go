// Package model assembles the right-hand side of the energy balance
// equation. An ordered list of function specs from configuration is
// resolved against the flux registry, partitioned into exactly one
// downward flux, exactly one upward flux, at most one transfer and any
// number of forcings, and fused into a single evaluator
//
//	dT/dt = (down + up + transfer + sum(forcings)) / C
//
// whose per-term contributions feed the diagnostics recorder.
package model

import (
	"fmt"
	"math"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/fluxes"
	"github.com/klimalab/ebmsim/internal/grid"
)

// FuncSpec is one configuration entry: a registry key and its frozen
// parameter set.
type FuncSpec struct {
	Func   string
	Params fluxes.Params
}

// EqParams are the equation-level parameters.
type EqParams struct {
	// HeatCapacity is C in J/(m^2 K): the heat capacity of the modeled
	// column times its height.
	HeatCapacity float64
}

// Equation is the composed model equation of one run.
type Equation struct {
	heatCapacity float64
	grid         *grid.Grid
	rec          *ebm.Recorder

	down     fluxes.Term
	up       fluxes.Term
	transfer fluxes.Term
	forcings []fluxes.Term

	out ebm.State
}

// Compose resolves and classifies the function specs and builds the
// evaluator. All configuration errors surface here, before any
// integration step runs.
func Compose(specs []FuncSpec, eq EqParams, env *fluxes.Env) (*Equation, error) {
	if eq.HeatCapacity <= 0 {
		return nil, ebm.Configf("eqparam.c_ao", "heat capacity must be > 0, got %g", eq.HeatCapacity)
	}
	e := &Equation{
		heatCapacity: eq.HeatCapacity,
		grid:         env.Grid,
		rec:          env.Rec,
		out:          make(ebm.State, env.Grid.Dim()),
	}

	for i, spec := range specs {
		cat, ctor, err := fluxes.Resolve(spec.Func)
		if err != nil {
			return nil, err
		}
		term, err := ctor(spec.Params, env)
		if err != nil {
			return nil, err
		}
		switch cat {
		case fluxes.CategoryDown:
			if e.down != nil {
				return nil, ebm.Configf(fmt.Sprintf("func%d", i), "second downward flux %q; exactly one is allowed", spec.Func)
			}
			e.down = term
		case fluxes.CategoryUp:
			if e.up != nil {
				return nil, ebm.Configf(fmt.Sprintf("func%d", i), "second upward flux %q; exactly one is allowed", spec.Func)
			}
			e.up = term
		case fluxes.CategoryTransfer:
			if e.transfer != nil {
				return nil, ebm.Configf(fmt.Sprintf("func%d", i), "second transfer flux %q; at most one is allowed", spec.Func)
			}
			e.transfer = term
		case fluxes.CategoryForcing:
			e.forcings = append(e.forcings, term)
		}
	}

	if e.down == nil {
		return nil, ebm.Configf("functions", "no downward flux configured; exactly one is required")
	}
	if e.up == nil {
		return nil, ebm.Configf("functions", "no upward flux configured; exactly one is required")
	}
	if !env.Grid.Is0D() && e.transfer == nil {
		return nil, ebm.Configf("functions", "a latitude-resolved run requires a transfer flux")
	}
	return e, nil
}

// Dim returns the temperature field size the equation operates on.
func (e *Equation) Dim() int { return e.grid.Dim() }

// Grid returns the grid the equation was composed for.
func (e *Equation) Grid() *grid.Grid { return e.grid }

// Recorder returns the diagnostics buffer the terms write into.
func (e *Equation) Recorder() *ebm.Recorder { return e.rec }

// Terms returns the diagnostic names of the composed terms, in
// evaluation order.
func (e *Equation) Terms() []string {
	names := []string{ebm.DiagRdown, ebm.DiagRup}
	if e.transfer != nil {
		names = append(names, ebm.DiagTransfer)
	}
	for i := range e.forcings {
		names = append(names, forcingDiag(i))
	}
	return names
}

func forcingDiag(i int) string { return fmt.Sprintf("forcing%d", i) }

// Eval computes dT/dt at (t, T) in Kelvin per second. When the recorder
// is armed, each term's flux is appended to the diagnostics buffer. A
// NaN or Inf contribution aborts with the offending term identified.
func (e *Equation) Eval(t float64, T ebm.State) (ebm.State, error) {
	e.out.Fill(0)

	if err := e.accumulate(ebm.DiagRdown, e.down, t, T); err != nil {
		return nil, err
	}
	if err := e.accumulate(ebm.DiagRup, e.up, t, T); err != nil {
		return nil, err
	}
	if e.transfer != nil {
		if err := e.accumulate(ebm.DiagTransfer, e.transfer, t, T); err != nil {
			return nil, err
		}
	}
	for i, f := range e.forcings {
		if err := e.accumulate(forcingDiag(i), f, t, T); err != nil {
			return nil, err
		}
	}

	for i := range e.out {
		e.out[i] /= e.heatCapacity
	}
	return e.out, nil
}

func (e *Equation) accumulate(diag string, term fluxes.Term, t float64, T ebm.State) error {
	flux, err := term.Eval(t, T)
	if err != nil {
		return err
	}
	for i, v := range flux {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ebm.NumericalError{Time: t, Term: term.Name()}
		}
		e.out[i] += v
	}
	e.rec.Record(diag, flux)
	return nil
}
