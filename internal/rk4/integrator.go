// Package rk4 drives a composed model equation forward in time with the
// classical fixed-step 4th-order Runge-Kutta scheme, accumulating output
// at a configurable readout interval and optionally halting early once
// the global mean temperature has reached equilibrium.
package rk4

import (
	"context"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/model"
)

// Config are the integration parameters (the rk4input section).
type Config struct {
	// Steps is the number of integration steps to perform.
	Steps int
	// StepSize is the step h in seconds.
	StepSize float64
	// DataReadout appends output only every DataReadout steps; the
	// initial and final states are always recorded.
	DataReadout int

	// EqCondition enables the equilibrium early stop: the run halts
	// once the recorded global mean temperature spans less than
	// EqAmplitude Kelvin over the last EqLength readouts.
	EqCondition bool
	EqLength    int
	EqAmplitude float64
}

func (c Config) validate() error {
	if c.Steps <= 0 {
		return ebm.Configf("rk4input.number_of_integration", "must be > 0, got %d", c.Steps)
	}
	if c.StepSize <= 0 {
		return ebm.Configf("rk4input.stepsize_of_integration", "must be > 0, got %g", c.StepSize)
	}
	if c.DataReadout < 0 {
		return ebm.Configf("rk4input.data_readout", "must be >= 1, got %d", c.DataReadout)
	}
	if c.EqCondition {
		if c.EqLength <= 0 {
			return ebm.Configf("rk4input.eq_condition_length", "must be > 0, got %d", c.EqLength)
		}
		if c.EqAmplitude <= 0 {
			return ebm.Configf("rk4input.eq_condition_amplitude", "must be > 0, got %g", c.EqAmplitude)
		}
	}
	return nil
}

// Integrator performs fixed-step RK4 runs. Scratch buffers are reused
// across steps; an Integrator serves one run at a time.
type Integrator struct {
	Log logrus.FieldLogger

	k1, k2, k3, k4 ebm.State
	scratch        ebm.State
}

func New() *Integrator {
	return &Integrator{Log: logrus.StandardLogger()}
}

func (r *Integrator) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(ebm.State, n)
		r.k2 = make(ebm.State, n)
		r.k3 = make(ebm.State, n)
		r.k4 = make(ebm.State, n)
		r.scratch = make(ebm.State, n)
	}
}

// Run integrates eq from (t0, T0) per cfg. The returned result carries
// the decimated time series; on failure or cancellation it is marked
// incomplete and holds a consistent snapshot to resume from, alongside
// the error. T0 is not mutated.
func (r *Integrator) Run(ctx context.Context, eq *model.Equation, t0 float64, T0 ebm.State, cfg Config) (*ebm.Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(T0) != eq.Dim() {
		return nil, ebm.Configf("initials", "initial state has %d bands, grid has %d", len(T0), eq.Dim())
	}
	readout := cfg.DataReadout
	if readout == 0 {
		readout = 1
	}
	n := cfg.Steps
	h := cfg.StepSize
	r.ensureScratch(eq.Dim())

	r.Log.WithFields(logrus.Fields{
		"steps":    n,
		"stepsize": h,
		"bands":    eq.Dim(),
	}).Info("starting integration")

	rec := eq.Recorder()
	g := eq.Grid()
	res := &ebm.Result{
		Times:           make([]float64, 0, n/readout+2),
		ZMT:             make([]ebm.State, 0, n/readout+2),
		GMT:             make([]float64, 0, n/readout+2),
		EquilibriumStep: -1,
	}

	t := t0
	T := T0.Clone()
	res.Times = append(res.Times, t)
	res.ZMT = append(res.ZMT, T.Clone())
	res.GMT = append(res.GMT, g.GlobalMean(T))

	fail := func(err error) (*ebm.Result, error) {
		rec.Disarm()
		res.Complete = false
		res.FinalTime = t
		res.FinalState = T.Clone()
		res.Diagnostics = rec.Series()
		return res, err
	}

	for i := 1; i <= n; i++ {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		isReadout := i%readout == 0 || i == n

		// The diagnostics buffer grows on the first of the four
		// evaluations of a readout step only.
		if isReadout {
			rec.Arm()
		}
		if err := r.Step(eq, t, T, h); err != nil {
			return fail(stamp(err, i))
		}
		t += h
		res.StepsTaken = i

		if !T.IsValid() {
			return fail(&ebm.NumericalError{Step: i, Time: t, Term: "state update"})
		}

		if isReadout {
			res.Times = append(res.Times, t)
			res.ZMT = append(res.ZMT, T.Clone())
			res.GMT = append(res.GMT, g.GlobalMean(T))

			if cfg.EqCondition && len(res.GMT) > cfg.EqLength {
				window := res.GMT[len(res.GMT)-cfg.EqLength:]
				if floats.Max(window)-floats.Min(window) < cfg.EqAmplitude {
					res.EquilibriumStep = i
					r.Log.WithFields(logrus.Fields{
						"step": i,
						"gmt":  res.GMT[len(res.GMT)-1],
					}).Info("steady state reached")
					break
				}
			}
		}
	}

	res.Complete = true
	res.FinalTime = t
	res.FinalState = T.Clone()
	res.Diagnostics = rec.Series()

	r.Log.WithFields(logrus.Fields{
		"steps":    res.StepsTaken,
		"readouts": len(res.Times),
		"gmt":      res.GMT[len(res.GMT)-1],
	}).Info("integration finished")
	return res, nil
}

// Step advances T in place by one classical Runge-Kutta step of size h
// starting at time t. If the equation's recorder is armed it disarms
// after the first evaluation, so diagnostics carry the values at the
// step start rather than at the intermediate stages.
func (r *Integrator) Step(eq *model.Equation, t float64, T ebm.State, h float64) error {
	r.ensureScratch(eq.Dim())
	rec := eq.Recorder()

	k1, err := eq.Eval(t, T)
	rec.Disarm()
	if err != nil {
		return err
	}
	copy(r.k1, k1)

	for j := range T {
		r.scratch[j] = T[j] + 0.5*h*r.k1[j]
	}
	k2, err := eq.Eval(t+0.5*h, r.scratch)
	if err != nil {
		return err
	}
	copy(r.k2, k2)

	for j := range T {
		r.scratch[j] = T[j] + 0.5*h*r.k2[j]
	}
	k3, err := eq.Eval(t+0.5*h, r.scratch)
	if err != nil {
		return err
	}
	copy(r.k3, k3)

	for j := range T {
		r.scratch[j] = T[j] + h*r.k3[j]
	}
	k4, err := eq.Eval(t+h, r.scratch)
	if err != nil {
		return err
	}
	copy(r.k4, k4)

	h6 := h / 6.0
	for j := range T {
		T[j] += h6 * (r.k1[j] + 2*r.k2[j] + 2*r.k3[j] + r.k4[j])
	}
	return nil
}

// stamp attaches the failing step index to a numerical error raised
// inside the evaluator.
func stamp(err error, step int) error {
	if ne, ok := err.(*ebm.NumericalError); ok {
		ne.Step = step
		return ne
	}
	return err
}
