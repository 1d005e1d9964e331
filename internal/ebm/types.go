package ebm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Physical constants in SI units.
const (
	// StefanBoltzmann is the Stefan-Boltzmann constant in W/(m^2 K^4).
	StefanBoltzmann = 5.670374419e-8

	// EarthRadius in meters.
	EarthRadius = 6.371e6

	// SecondsPerDay and SecondsPerYear convert the human-readable time
	// units accepted in configuration files to the internal seconds.
	SecondsPerDay  = 86400.0
	SecondsPerYear = 86400.0 * 365
)

// State is a zonal temperature field in Kelvin. 0D runs use a single
// element, 1D runs one element per latitude band.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether the field is free of NaN and Inf entries.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AddScaled sets s = s + a*x. The two fields must have equal length.
func (s State) AddScaled(a float64, x State) {
	floats.AddScaled(s, a, x)
}

// Fill sets every band to v.
func (s State) Fill(v float64) {
	for i := range s {
		s[i] = v
	}
}

// Uniform returns an n-band field with every entry set to v.
func Uniform(n int, v float64) State {
	s := make(State, n)
	s.Fill(v)
	return s
}

// Result holds the output time series of one integration run, indexed by
// readout step (not integration step; see the data_readout setting).
type Result struct {
	// Times in seconds since the configured initial time.
	Times []float64
	// ZMT holds the zonal temperature field at each readout.
	ZMT []State
	// GMT holds the area-weighted global mean temperature at each readout.
	GMT []float64

	// Diagnostics maps term names to their recorded per-readout values.
	Diagnostics map[string][]State

	// StepsTaken counts completed integration steps.
	StepsTaken int
	// EquilibriumStep is the step at which the equilibrium condition
	// terminated the run, or -1 if it never fired.
	EquilibriumStep int
	// Complete is false when the run was aborted (numerical failure or
	// cancellation) and the series above only cover part of the run.
	Complete bool

	// FinalTime and FinalState snapshot the integrator state at the end
	// of the run. For an interrupted run they are a consistent point to
	// resume from.
	FinalTime  float64
	FinalState State
}
