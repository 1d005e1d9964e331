package fluxes

import (
	"math"
	"math/rand"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// s2 is the amplitude of the second Legendre mode of the annual-mean
// insolation distribution (North 1975).
const s2 = -0.48

// insolation is the absorbed downward radiation
//
//	R_down = m * (1 - alpha) * (Q + dQ + z)
//
// with the albedo alpha from a configured sub-function and an optional
// solar noise term z held constant over a configurable number of steps.
type insolation struct {
	base
	env    *Env
	q      float64
	factor float64
	dq     float64
	albedo albedoFunc

	// solar noise state, private to this instance
	noise      bool
	noiseAmp   float64
	noiseEvery float64 // seconds between redraws
	rng        *rand.Rand
	nextDraw   float64
	z          float64
	started    bool

	// qdist is the per-band insolation; nil for a flat Q.
	qdist []float64
	out   ebm.State
}

func newInsolation(p Params, env *Env) (Term, error) {
	t := &insolation{
		base: base{name: "flux_down.insolation", cat: CategoryDown},
		env:  env,
		out:  make(ebm.State, env.Grid.Dim()),
	}
	var err error
	if t.q, err = p.FloatDef(t.name, "q", 342); err != nil {
		return nil, err
	}
	if t.factor, err = p.FloatDef(t.name, "m", 1); err != nil {
		return nil, err
	}
	if t.dq, err = p.FloatDef(t.name, "dq", 0); err != nil {
		return nil, err
	}

	albedoName, err := p.StrDef(t.name, "albedo", "static")
	if err != nil {
		return nil, err
	}
	albedoParams, err := p.Sub(t.name, "albedoparam")
	if err != nil {
		return nil, err
	}
	if t.albedo, err = resolveAlbedo(t.name, albedoName, albedoParams, env.Grid); err != nil {
		return nil, err
	}

	if t.noise, err = p.BoolDef(t.name, "noise", false); err != nil {
		return nil, err
	}
	if t.noise {
		if t.noiseAmp, err = p.Float(t.name, "noiseamp"); err != nil {
			return nil, err
		}
		delay, err := p.IntDef(t.name, "noisedelay", 1)
		if err != nil {
			return nil, err
		}
		if delay < 1 {
			return nil, t.errf("noisedelay", "must be >= 1 step, got %d", delay)
		}
		seed, err := p.IntDef(t.name, "seed", 0)
		if err != nil {
			return nil, err
		}
		t.noiseEvery = float64(delay) * env.StepSize
		t.rng = rand.New(rand.NewSource(int64(seed)))
	}

	solarInput, err := p.BoolDef(t.name, "solarinput", !env.Grid.Is0D())
	if err != nil {
		return nil, err
	}
	conv, err := p.FloatDef(t.name, "convfactor", 1)
	if err != nil {
		return nil, err
	}
	if solarInput && !env.Grid.Is0D() {
		// Annual-mean distribution Q*(1 + s2*P2(sin(lat))), recorded
		// once since it is constant over the run. The recorder is not
		// armed at construction, so the armed Record would drop it.
		t.qdist = make([]float64, env.Grid.Dim())
		for i, lat := range env.Grid.Centers() {
			x := math.Sin(lat * math.Pi / 180)
			t.qdist[i] = t.q * conv * (1 + s2*0.5*(3*x*x-1))
		}
		env.Rec.RecordConstant(ebm.DiagSolar, ebm.State(t.qdist))
	}
	return t, nil
}

func (t *insolation) Eval(tm float64, T ebm.State) (ebm.State, error) {
	alpha := t.albedo(T)
	t.env.Rec.Record(ebm.DiagAlbedo, alpha)

	if t.noise {
		if !t.started || tm >= t.nextDraw {
			t.z = t.rng.NormFloat64() * t.noiseAmp
			t.nextDraw = tm + t.noiseEvery
			t.started = true
		}
		t.env.Rec.RecordScalar(ebm.DiagNoise, t.z)
	}

	for i := range t.out {
		q := t.q
		if t.qdist != nil {
			q = t.qdist[i]
		}
		t.out[i] = t.factor * (1 - alpha[i]) * (q + t.dq + t.z)
	}
	return t.out, nil
}
