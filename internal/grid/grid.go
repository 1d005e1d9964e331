// Package grid builds the latitude grid of a model run and materializes
// its initial temperature state. A resolution of 0 degrees produces the
// single-band 0D grid; otherwise latitude is partitioned into bands whose
// fractional areas follow the spherical band formula.
package grid

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// Band is one latitude band of the grid.
type Band struct {
	// Center is the band's midpoint latitude in degrees.
	Center float64
	// South and North are the bounding latitudes in degrees.
	South, North float64
	// Area is the band's physical surface area in m^2.
	Area float64
}

// Options selects the grid shape, mirroring the rk4input settings.
type Options struct {
	// Resolution is the band width in degrees; 0 selects the 0D grid.
	Resolution float64
	// BothHemispheres extends the grid from pole to pole; otherwise only
	// the northern hemisphere (equator to pole) is gridded and the global
	// mean treats it as the whole domain (mirror symmetry).
	BothHemispheres bool
	// Belt places temperatures at band midpoints (the default shape);
	// Circle places them on the latitude circles themselves.
	Belt, Circle bool
}

// Grid is the immutable latitude grid of one model run.
type Grid struct {
	opts  Options
	bands []Band

	// weights are the normalized area weights, summing to 1 over the
	// modeled domain.
	weights []float64
	// boundary holds the inner boundary latitudes between adjacent bands;
	// boundaryLen the circumference of those latitude circles in meters.
	boundary    []float64
	boundaryLen []float64
}

// New builds a grid from opts.
func New(opts Options) (*Grid, error) {
	if opts.Resolution == 0 {
		g := &Grid{
			opts:    opts,
			bands:   []Band{{Center: 0, South: -90, North: 90, Area: 4 * math.Pi * ebm.EarthRadius * ebm.EarthRadius}},
			weights: []float64{1},
		}
		return g, nil
	}
	if opts.Resolution < 0 {
		return nil, ebm.Configf("spatial_resolution", "must be >= 0, got %g", opts.Resolution)
	}
	if opts.Belt == opts.Circle {
		return nil, ebm.Configf("latitudinal_circle/latitudinal_belt", "exactly one grid shape must be selected")
	}

	latRange := 90.0
	south := 0.0
	if opts.BothHemispheres {
		latRange = 180.0
		south = -90.0
	}
	n := latRange / opts.Resolution
	if n != math.Trunc(n) {
		return nil, ebm.Configf("spatial_resolution", "%g degrees does not evenly divide %g", opts.Resolution, latRange)
	}

	var centers []float64
	w := opts.Resolution
	if opts.Circle {
		// Temperatures on the latitude circles; pole circles are
		// degenerate and excluded on a pole-to-pole grid.
		if opts.BothHemispheres {
			for c := south + w; c < 90; c += w {
				centers = append(centers, c)
			}
		} else {
			for c := 0.0; c < 90; c += w {
				centers = append(centers, c)
			}
		}
	} else {
		for c := south + w/2; c < 90; c += w {
			centers = append(centers, c)
		}
	}

	g := &Grid{opts: opts, bands: make([]Band, len(centers))}
	for i, c := range centers {
		b := Band{Center: c, South: c - w/2, North: c + w/2}
		if opts.Circle {
			// Midpoints between circles; the outermost bounds extend
			// to the poles (or to the equator on a hemisphere grid).
			if i == 0 {
				b.South = south
			}
			if i == len(centers)-1 {
				b.North = 90
			}
		}
		b.Area = bandArea(b.South, b.North)
		g.bands[i] = b
	}

	total := 0.0
	g.weights = make([]float64, len(g.bands))
	for _, b := range g.bands {
		total += b.Area
	}
	for i, b := range g.bands {
		g.weights[i] = b.Area / total
	}

	for i := 0; i < len(g.bands)-1; i++ {
		lat := g.bands[i].North
		g.boundary = append(g.boundary, lat)
		g.boundaryLen = append(g.boundaryLen, 2*math.Pi*ebm.EarthRadius*cosd(lat))
	}
	return g, nil
}

// bandArea returns the surface area in m^2 of the spherical band between
// two latitudes.
func bandArea(south, north float64) float64 {
	r := ebm.EarthRadius
	return 2 * math.Pi * r * r * (sind(north) - sind(south))
}

// Dim returns the number of bands (1 for the 0D grid).
func (g *Grid) Dim() int { return len(g.bands) }

// Is0D reports whether the grid is the single global band.
func (g *Grid) Is0D() bool { return g.opts.Resolution == 0 }

// Bands returns the bands, south to north.
func (g *Grid) Bands() []Band { return g.bands }

// Centers returns the band midpoint latitudes in degrees.
func (g *Grid) Centers() []float64 {
	c := make([]float64, len(g.bands))
	for i, b := range g.bands {
		c[i] = b.Center
	}
	return c
}

// Weights returns the normalized area weights. They sum to 1 over the
// modeled domain; on a hemisphere-only grid the mirror hemisphere is
// implied by symmetry.
func (g *Grid) Weights() []float64 { return g.weights }

// BoundaryLatitudes returns the inner boundary latitudes between
// adjacent bands (empty for 0D).
func (g *Grid) BoundaryLatitudes() []float64 { return g.boundary }

// BoundaryLengths returns the circumference in meters of the latitude
// circles at the inner boundaries.
func (g *Grid) BoundaryLengths() []float64 { return g.boundaryLen }

// GlobalMean returns the area-weighted mean of a zonal temperature field.
func (g *Grid) GlobalMean(t ebm.State) float64 {
	return floats.Dot(g.weights, t)
}

// Initials configures the initial temperature state.
type Initials struct {
	// Time is the initial simulation time in seconds.
	Time float64
	// ZMT is the uniform initial zonal temperature in Kelvin.
	ZMT float64
	// GMT is the initial global mean temperature reported at readout 0
	// for 0D runs; for 1D runs the area-weighted mean of the synthesized
	// field takes precedence.
	GMT float64

	// Cosine modulates the field with Amplitude*(cos(lat)-1).
	Cosine    bool
	Amplitude float64

	// Noise perturbs every band with N(0, NoiseAmplitude) draws from a
	// generator private to this run; equal seeds reproduce equal fields.
	Noise          bool
	NoiseAmplitude float64
	Seed           int64
}

// InitialState synthesizes the initial temperature field for g.
func (g *Grid) InitialState(init Initials) ebm.State {
	t := ebm.Uniform(g.Dim(), init.ZMT)
	if g.Is0D() {
		return t
	}
	if init.Cosine {
		for i, b := range g.bands {
			t[i] += init.Amplitude * (cosd(b.Center) - 1)
		}
	}
	if init.Noise {
		rng := rand.New(rand.NewSource(init.Seed))
		for i := range t {
			t[i] += rng.NormFloat64() * init.NoiseAmplitude
		}
	}
	return t
}

func cosd(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }
func sind(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }
