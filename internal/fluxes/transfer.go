package fluxes

import (
	"math"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/grid"
)

const mbToPa = 100.0

// budykoTransfer is the diffusive inter-band exchange beta*(Tg - T(lat)).
// Its area-weighted global mean vanishes, so it redistributes rather
// than creates energy.
type budykoTransfer struct {
	base
	g    *grid.Grid
	beta float64
	out  ebm.State
}

func newBudykoTransfer(p Params, env *Env) (Term, error) {
	t := &budykoTransfer{
		base: base{name: "transfer.budyko", cat: CategoryTransfer},
		g:    env.Grid,
		out:  make(ebm.State, env.Grid.Dim()),
	}
	if env.Grid.Is0D() {
		return nil, ebm.Configf(t.name, "transfer needs a latitude grid")
	}
	var err error
	if t.beta, err = p.FloatDef(t.name, "beta", 3.81); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *budykoTransfer) Eval(_ float64, T ebm.State) (ebm.State, error) {
	tg := t.g.GlobalMean(T)
	for i, v := range T {
		t.out[i] = t.beta * (tg - v)
	}
	return t.out, nil
}

// sellersTransfer is Sellers' meridional energy exchange: watervapour,
// atmospheric sensible heat and oceanic sensible heat cross each inner
// band boundary, and the band tendency is the boundary flux divergence
// weighted with circle lengths and band areas.
type sellersTransfer struct {
	base
	g *grid.Grid

	kwv, kh, ko                 float64
	grav, eps, pr, e0           float64
	latent, rd, dy, dp          float64
	cp, dz, cover               float64
	cpw, densw                  float64
	fwv, fair, foc, fkwv, fkair float64
	a                           []float64

	// scratch, one slot per inner boundary
	dT, v, p []float64
	out      ebm.State
}

func newSellersTransfer(p Params, env *Env) (Term, error) {
	g := env.Grid
	t := &sellersTransfer{
		base: base{name: "transfer.sellers", cat: CategoryTransfer},
		g:    g,
	}
	if g.Is0D() {
		return nil, ebm.Configf(t.name, "transfer needs a latitude grid")
	}
	nb := len(g.BoundaryLatitudes())
	if nb == 0 {
		return nil, ebm.Configf(t.name, "grid has no inner boundaries")
	}

	bandWidth := (g.Bands()[0].North - g.Bands()[0].South) * math.Pi / 180 * ebm.EarthRadius
	defaults := []struct {
		key string
		dst *float64
		def float64
	}{
		{"k_wv", &t.kwv, 1e5},     // watervapour diffusivity, m^2/s
		{"k_h", &t.kh, 1e6},       // eddy diffusivity of air, m^2/s
		{"k_o", &t.ko, 1e2},       // ocean diffusivity, m^2/s
		{"g", &t.grav, 9.81},      // m/s^2
		{"eps", &t.eps, 0.622},    // water/air molar mass ratio
		{"p", &t.pr, 1000},        // surface pressure, mb
		{"e0", &t.e0, 17},         // saturation pressure scale, mb
		{"l", &t.latent, 2.5e6},   // latent heat of condensation, J/kg
		{"rd", &t.rd, 287},        // gas constant of dry air, J/(kg K)
		{"dy", &t.dy, bandWidth},  // band width, m
		{"dp", &t.dp, 800},        // tropospheric pressure depth, mb
		{"cp", &t.cp, 1004},       // specific heat of air, J/(kg K)
		{"dz", &t.dz, 2000},       // mean ocean mixing depth, m
		{"l_cover", &t.cover, 0.5},
		{"cp_w", &t.cpw, 4182},    // specific heat of water, J/(kg K)
		{"dens_w", &t.densw, 1000},
		{"factor_wv", &t.fwv, 1},
		{"factor_air", &t.fair, 1},
		{"factor_oc", &t.foc, 1},
		{"factor_kwv", &t.fkwv, 1},
		{"factor_kair", &t.fkair, 1},
	}
	for _, d := range defaults {
		v, err := p.FloatDef(t.name, d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	// The wind coefficient may be a per-boundary distribution or one
	// scalar replicated over the boundaries.
	if _, isList := p["a"].([]any); isList {
		a, err := p.Floats(t.name, "a", nb)
		if err != nil {
			return nil, err
		}
		t.a = a
	} else {
		a, err := p.FloatDef(t.name, "a", 1e-2)
		if err != nil {
			return nil, err
		}
		t.a = make([]float64, nb)
		for i := range t.a {
			t.a[i] = a
		}
	}

	t.dT = make([]float64, nb)
	t.v = make([]float64, nb)
	t.p = make([]float64, nb)
	t.out = make(ebm.State, g.Dim())
	return t, nil
}

func (t *sellersTransfer) Eval(_ float64, T ebm.State) (ebm.State, error) {
	g := t.g
	bounds := g.BoundaryLatitudes()
	lengths := g.BoundaryLengths()
	nb := len(bounds)

	// Temperature difference across each inner boundary, and the
	// cosine-weighted mean |dT| entering the wind closure.
	var sumW, sumWdT float64
	for j := 0; j < nb; j++ {
		t.dT[j] = T[j+1] - T[j]
		w := math.Cos(bounds[j] * math.Pi / 180)
		sumW += w
		sumWdT += w * math.Abs(t.dT[j])
	}
	tAv := sumWdT / sumW

	// Sellers' empirical meridional wind: equatorward of 5 degrees the
	// mean gradient is subtracted, poleward it is added.
	for j := 0; j < nb; j++ {
		if bounds[j] < 5 {
			t.v[j] = -t.a[j] * (t.dT[j] - tAv)
		} else {
			t.v[j] = -t.a[j] * (t.dT[j] + tAv)
		}
	}

	// Boundary fluxes: watervapour, air sensible heat, ocean sensible heat.
	for j := 0; j < nb; j++ {
		tn := T[j+1]
		e := t.e0 * (1 - 0.5*t.eps*t.latent*t.dT[j]/(t.rd*tn*tn))
		q := t.eps * e / t.pr
		dq := t.eps * t.eps * t.latent * e * t.dT[j] / (t.pr * t.rd * tn * tn)

		wv := t.latent * (t.v[j]*q - t.kwv*t.fkwv*dq/t.dy) * (t.dp * mbToPa / t.grav) * t.fwv
		air := (t.v[j]*T[j] - t.kh*t.fkair*t.dT[j]/t.dy) * (t.cp * t.dp * mbToPa / t.grav) * t.fair
		oc := -t.ko * t.dz * t.cover * t.dT[j] / t.dy * t.cpw * t.densw * t.foc
		t.p[j] = wv + air + oc
	}

	// Divergence per band: flux in across the southern boundary minus
	// flux out across the northern one, normalized by band area.
	for i := range t.out {
		var in, out float64
		if i > 0 {
			in = t.p[i-1] * lengths[i-1]
		}
		if i < nb {
			out = t.p[i] * lengths[i]
		}
		t.out[i] = (in - out) / g.Bands()[i].Area
	}
	return t.out, nil
}
