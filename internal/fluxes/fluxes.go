// Package fluxes is the catalogue of physical energy-flux functions an
// energy-balance model can be assembled from. Every function is exposed
// through a fixed registry keyed by "<category>.<name>"; the composer in
// internal/model resolves configuration entries against it and receives
// statically-typed [Term] instances.
//
// Terms are pure with respect to their frozen parameters. The stateful
// exceptions (solar noise generators, forcing-series cursors) scope their
// state to the constructed instance, so independently configured terms
// never interfere and parallel runs stay isolated.
package fluxes

import (
	"fmt"
	"sort"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/grid"
)

// Category classifies a flux function's role in the model equation.
type Category string

const (
	CategoryDown     Category = "flux_down"
	CategoryUp       Category = "flux_up"
	CategoryTransfer Category = "transfer"
	CategoryForcing  Category = "forcing"
)

// Env is the per-run context a term is bound to at construction time.
type Env struct {
	Grid *grid.Grid
	// Rec receives internal diagnostics (albedo, solar noise). Term
	// return values themselves are recorded by the composer.
	Rec *ebm.Recorder
	// StepSize is the integration step in seconds, used by terms whose
	// internal state advances in step units (noise delay).
	StepSize float64
}

// Term is one resolved flux function bound to its parameter set. Eval
// returns the flux in W/m^2 with the shape of the temperature field.
type Term interface {
	Name() string
	Category() Category
	Eval(t float64, T ebm.State) (ebm.State, error)
}

// Constructor builds a term from its configured parameters, failing fast
// on missing or grid-incompatible parameters.
type Constructor func(p Params, env *Env) (Term, error)

type entry struct {
	cat  Category
	ctor Constructor
}

var registry = map[string]entry{
	"flux_down.insolation":    {CategoryDown, newInsolation},
	"flux_up.planck":          {CategoryUp, newPlanck},
	"flux_up.budyko_noclouds": {CategoryUp, newBudykoNoClouds},
	"flux_up.budyko_clouds":   {CategoryUp, newBudykoClouds},
	"flux_up.sellers":         {CategoryUp, newSellersUp},
	"transfer.budyko":         {CategoryTransfer, newBudykoTransfer},
	"transfer.sellers":        {CategoryTransfer, newSellersTransfer},
	"forcing.predefined":      {CategoryForcing, newPredefinedForcing},
	"forcing.random":          {CategoryForcing, newRandomForcing},
	"forcing.co2_myhre":       {CategoryForcing, newCO2Myhre},
}

// Resolve maps a "<category>.<name>" key to its category and constructor.
// An unknown key is a configuration error.
func Resolve(name string) (Category, Constructor, error) {
	e, ok := registry[name]
	if !ok {
		return "", nil, ebm.Configf("func", "unknown function %q", name)
	}
	return e.cat, e.ctor, nil
}

// Names lists the registered function keys, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// base carries the identity shared by all terms.
type base struct {
	name string
	cat  Category
}

func (b base) Name() string       { return b.name }
func (b base) Category() Category { return b.cat }

func (b base) errf(key, format string, args ...any) error {
	return ebm.Configf(fmt.Sprintf("%s.%s", b.name, key), format, args...)
}
