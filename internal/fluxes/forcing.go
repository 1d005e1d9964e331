package fluxes

import (
	"math"
	"math/rand"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/forcingdata"
)

// predefinedForcing serves a file-backed forcing series (CO2, volcanic,
// solar, orbital reconstructions) as a globally uniform flux
// perturbation. The series cursor is private to this instance.
type predefinedForcing struct {
	base
	cursor *forcingdata.Cursor
	out    ebm.State
}

func forcingFileOptions(fn string, p Params) (forcingdata.Options, error) {
	var opts forcingdata.Options
	var err error
	if opts.Path, err = p.Str(fn, "path"); err != nil {
		return opts, err
	}
	if opts.Delimiter, err = p.StrDef(fn, "delimiter", ""); err != nil {
		return opts, err
	}
	if opts.Header, err = p.IntDef(fn, "header", 0); err != nil {
		return opts, err
	}
	if opts.TimeCol, err = p.IntDef(fn, "col_time", 0); err != nil {
		return opts, err
	}
	if opts.ValueCol, err = p.IntDef(fn, "col_forcing", 1); err != nil {
		return opts, err
	}
	if opts.TimeUnit, err = p.StrDef(fn, "timeunit", "year"); err != nil {
		return opts, err
	}
	if opts.BeforePresent, err = p.BoolDef(fn, "bp", false); err != nil {
		return opts, err
	}
	if opts.TimeStart, err = p.FloatDef(fn, "time_start", 0); err != nil {
		return opts, err
	}
	if opts.KInput, err = p.FloatDef(fn, "k_input", 1); err != nil {
		return opts, err
	}
	if opts.MInput, err = p.FloatDef(fn, "m_input", 0); err != nil {
		return opts, err
	}
	if opts.KOutput, err = p.FloatDef(fn, "k_output", 1); err != nil {
		return opts, err
	}
	if opts.MOutput, err = p.FloatDef(fn, "m_output", 0); err != nil {
		return opts, err
	}
	return opts, nil
}

func newPredefinedForcing(p Params, env *Env) (Term, error) {
	t := &predefinedForcing{
		base: base{name: "forcing.predefined", cat: CategoryForcing},
		out:  make(ebm.State, env.Grid.Dim()),
	}
	opts, err := forcingFileOptions(t.name, p)
	if err != nil {
		return nil, err
	}
	series, err := forcingdata.Load(opts)
	if err != nil {
		return nil, err
	}
	t.cursor = series.NewCursor()
	return t, nil
}

func (t *predefinedForcing) Eval(tm float64, _ ebm.State) (ebm.State, error) {
	t.out.Fill(t.cursor.Lookup(tm))
	return t.out, nil
}

// randomForcing synthesizes a reproducible episodic forcing series at
// construction time (volcanic-eruption style events with a frequency
// class and a step or exponential-decay shape) and serves it through
// the same cursor lookup as a file-backed series.
type randomForcing struct {
	base
	cursor *forcingdata.Cursor
	out    ebm.State
}

func newRandomForcing(p Params, env *Env) (Term, error) {
	t := &randomForcing{
		base: base{name: "forcing.random", cat: CategoryForcing},
		out:  make(ebm.State, env.Grid.Dim()),
	}
	start, err := p.Float(t.name, "start")
	if err != nil {
		return nil, err
	}
	stop, err := p.Float(t.name, "stop")
	if err != nil {
		return nil, err
	}
	step, err := p.Float(t.name, "steps")
	if err != nil {
		return nil, err
	}
	if step <= 0 || stop <= start {
		return nil, t.errf("steps", "need steps > 0 and stop > start")
	}
	timeUnit, err := p.StrDef(t.name, "timeunit", "year")
	if err != nil {
		return nil, err
	}
	strength, err := p.Float(t.name, "strength")
	if err != nil {
		return nil, err
	}
	frequency, err := p.StrDef(t.name, "frequency", "common")
	if err != nil {
		return nil, err
	}
	behaviour, err := p.StrDef(t.name, "behaviour", "step")
	if err != nil {
		return nil, err
	}
	lifetime, err := p.FloatDef(t.name, "lifetime", 1)
	if err != nil {
		return nil, err
	}
	seed, err := p.IntDef(t.name, "seed", 0)
	if err != nil {
		return nil, err
	}
	sign, err := p.StrDef(t.name, "sign", "negative")
	if err != nil {
		return nil, err
	}

	n := int((stop-start)/step) + 1
	span := math.Abs(stop-start) / step * 4 / 100
	var freqMin, freqMax float64
	switch frequency {
	case "common":
		freqMin, freqMax = 0, span
	case "intermediate":
		freqMin, freqMax = span, span*3
	case "rare":
		freqMin, freqMax = span*3, span*7.5
	case "superrare":
		freqMin, freqMax = span*7.5, span*15
	default:
		return nil, t.errf("frequency", "unknown class %q", frequency)
	}
	if freqMax < 2 {
		freqMax = 2
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	values := make([]float64, n)
	for i := 0; i < n; {
		event := rng.Float64() * strength
		switch behaviour {
		case "step":
			for k := 0; k < int(lifetime) && i+k < n; k++ {
				values[i+k] = event
			}
		case "exponential":
			for k := 0; k < int(lifetime*4) && i+k < n; k++ {
				values[i+k] = event * math.Exp(-float64(k)/lifetime)
			}
		default:
			return nil, t.errf("behaviour", "unknown shape %q", behaviour)
		}
		gap := int(freqMin) + rng.Intn(int(freqMax-freqMin)+1)
		if gap < 1 {
			gap = 1
		}
		i += gap
	}
	if sign == "negative" {
		for i := range values {
			values[i] = -values[i]
		}
	} else if sign != "positive" {
		return nil, t.errf("sign", "expected positive or negative, got %q", sign)
	}

	scale, ok := map[string]float64{
		"second": 1, "minute": 60, "hour": 3600,
		"day": ebm.SecondsPerDay, "week": 7 * ebm.SecondsPerDay,
		"month": ebm.SecondsPerYear / 12, "year": ebm.SecondsPerYear,
	}[timeUnit]
	if !ok {
		return nil, t.errf("timeunit", "unknown unit %q", timeUnit)
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = (start + float64(i)*step) * scale
	}
	series, err := forcingdata.NewSeries(times, values, forcingdata.Options{})
	if err != nil {
		return nil, err
	}
	t.cursor = series.NewCursor()
	return t, nil
}

func (t *randomForcing) Eval(tm float64, _ ebm.State) (ebm.State, error) {
	t.out.Fill(t.cursor.Lookup(tm))
	return t.out, nil
}

// co2Myhre is the logarithmic CO2 radiative forcing A*ln(C/C0) (Myhre
// 1998) driven by a concentration time series; outside the series range
// the configured base concentration applies.
type co2Myhre struct {
	base
	a, c0   float64
	baseF   float64
	series  *forcingdata.Series
	idx     int
	current float64
	out     ebm.State
}

func newCO2Myhre(p Params, env *Env) (Term, error) {
	t := &co2Myhre{
		base: base{name: "forcing.co2_myhre", cat: CategoryForcing},
		out:  make(ebm.State, env.Grid.Dim()),
	}
	var err error
	if t.a, err = p.FloatDef(t.name, "a", 5.35); err != nil {
		return nil, err
	}
	if t.c0, err = p.FloatDef(t.name, "c_0", 278); err != nil {
		return nil, err
	}
	baseConc, err := p.FloatDef(t.name, "co2_base", t.c0)
	if err != nil {
		return nil, err
	}
	opts, err := forcingFileOptions(t.name, p)
	if err != nil {
		return nil, err
	}
	if t.series, err = forcingdata.Load(opts); err != nil {
		return nil, err
	}
	t.baseF = t.a * math.Log(baseConc/t.c0)
	t.current = t.baseF
	return t, nil
}

func (t *co2Myhre) Eval(tm float64, _ ebm.State) (ebm.State, error) {
	for {
		st, sv := t.series.At(t.idx)
		if tm <= st {
			break
		}
		if t.idx == t.series.Len()-1 {
			t.current = t.baseF
			break
		}
		t.current = t.a * math.Log(sv/t.c0)
		t.idx++
	}
	t.out.Fill(t.current)
	return t.out, nil
}
