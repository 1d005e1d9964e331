package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/klimalab/ebmsim/internal/ebm"
)

func TestZeroDimensionalGrid(t *testing.T) {
	g, err := New(Options{Resolution: 0})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if g.Dim() != 1 {
		t.Errorf("expected 1 band, got %d", g.Dim())
	}
	if !g.Is0D() {
		t.Error("expected 0D grid")
	}
	if w := g.Weights()[0]; w != 1 {
		t.Errorf("expected weight 1, got %f", w)
	}
	if mean := g.GlobalMean(ebm.State{288.0}); mean != 288.0 {
		t.Errorf("expected mean 288, got %f", mean)
	}
	if len(g.BoundaryLatitudes()) != 0 {
		t.Error("0D grid should have no inner boundaries")
	}
}

func TestBandCounts(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"belt 10deg global", Options{Resolution: 10, BothHemispheres: true, Belt: true}, 18},
		{"belt 10deg hemisphere", Options{Resolution: 10, Belt: true}, 9},
		{"belt 30deg global", Options{Resolution: 30, BothHemispheres: true, Belt: true}, 6},
		{"belt 5deg hemisphere", Options{Resolution: 5, Belt: true}, 18},
		{"circle 10deg global", Options{Resolution: 10, BothHemispheres: true, Circle: true}, 17},
		{"circle 10deg hemisphere", Options{Resolution: 10, Circle: true}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.opts)
			if err != nil {
				t.Fatalf("new failed: %v", err)
			}
			if g.Dim() != tt.want {
				t.Errorf("expected %d bands, got %d", tt.want, g.Dim())
			}
			if len(g.BoundaryLatitudes()) != tt.want-1 {
				t.Errorf("expected %d boundaries, got %d", tt.want-1, len(g.BoundaryLatitudes()))
			}
		})
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative resolution", Options{Resolution: -5, Belt: true}},
		{"uneven division", Options{Resolution: 7, BothHemispheres: true, Belt: true}},
		{"neither shape", Options{Resolution: 10}},
		{"both shapes", Options{Resolution: 10, Belt: true, Circle: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if !errors.Is(err, ebm.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestWeightsSumToOne(t *testing.T) {
	for _, opts := range []Options{
		{Resolution: 10, BothHemispheres: true, Belt: true},
		{Resolution: 10, Belt: true},
		{Resolution: 15, BothHemispheres: true, Circle: true},
	} {
		g, err := New(opts)
		if err != nil {
			t.Fatalf("new failed: %v", err)
		}
		sum := 0.0
		for _, w := range g.Weights() {
			if w <= 0 {
				t.Errorf("non-positive weight %f", w)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("weights sum to %f, expected 1", sum)
		}
	}
}

func TestGlobalMeanUniformField(t *testing.T) {
	g, err := New(Options{Resolution: 10, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	mean := g.GlobalMean(ebm.Uniform(g.Dim(), 273.15))
	if math.Abs(mean-273.15) > 1e-9 {
		t.Errorf("uniform field should average to itself, got %f", mean)
	}
}

func TestEquatorialBandsWeighMore(t *testing.T) {
	g, err := New(Options{Resolution: 10, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	w := g.Weights()
	// Bands run south to north; the equatorial bands sit in the middle.
	if w[len(w)/2] <= w[0] {
		t.Errorf("equatorial weight %f should exceed polar weight %f", w[len(w)/2], w[0])
	}
	// Mirror symmetry of the area weights.
	for i := range w {
		j := len(w) - 1 - i
		if math.Abs(w[i]-w[j]) > 1e-12 {
			t.Errorf("weights not symmetric: w[%d]=%g, w[%d]=%g", i, w[i], j, w[j])
		}
	}
}

func TestBeltCenters(t *testing.T) {
	g, err := New(Options{Resolution: 30, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	want := []float64{-75, -45, -15, 15, 45, 75}
	got := g.Centers()
	if len(got) != len(want) {
		t.Fatalf("expected %d centers, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("center %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestCircleCentersExcludePoles(t *testing.T) {
	g, err := New(Options{Resolution: 10, BothHemispheres: true, Circle: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	c := g.Centers()
	if c[0] != -80 || c[len(c)-1] != 80 {
		t.Errorf("expected circles from -80 to 80, got %f to %f", c[0], c[len(c)-1])
	}
	// The outermost bands still cover the full sphere.
	bands := g.Bands()
	if bands[0].South != -90 || bands[len(bands)-1].North != 90 {
		t.Error("outer band bounds should reach the poles")
	}
}

func TestBoundaryLengths(t *testing.T) {
	g, err := New(Options{Resolution: 30, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	bounds := g.BoundaryLatitudes()
	lengths := g.BoundaryLengths()
	equatorIdx := -1
	for i, lat := range bounds {
		if lat == 0 {
			equatorIdx = i
		}
	}
	if equatorIdx == -1 {
		t.Fatal("expected an equatorial boundary")
	}
	wantEquator := 2 * math.Pi * ebm.EarthRadius
	if math.Abs(lengths[equatorIdx]-wantEquator) > 1 {
		t.Errorf("equator circumference: expected %g, got %g", wantEquator, lengths[equatorIdx])
	}
	for i, l := range lengths {
		if l <= 0 || l > wantEquator+1 {
			t.Errorf("boundary %d length %g out of range", i, l)
		}
	}
}

func TestInitialStateCosine(t *testing.T) {
	g, err := New(Options{Resolution: 10, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	T := g.InitialState(Initials{ZMT: 288, Cosine: true, Amplitude: 30})
	mid := g.Dim() / 2
	if T[0] >= T[mid] {
		t.Errorf("poles should start colder: pole %f, equator %f", T[0], T[mid])
	}
	// Amplitude*(cos(lat)-1) is 0 at the equator, so the near-equator
	// bands stay close to the uniform value.
	if math.Abs(T[mid]-288) > 1 {
		t.Errorf("equatorial band should stay near 288, got %f", T[mid])
	}
}

func TestInitialStateNoiseDeterminism(t *testing.T) {
	g, err := New(Options{Resolution: 10, BothHemispheres: true, Belt: true})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	a := g.InitialState(Initials{ZMT: 288, Noise: true, NoiseAmplitude: 2, Seed: 7})
	b := g.InitialState(Initials{ZMT: 288, Noise: true, NoiseAmplitude: 2, Seed: 7})
	c := g.InitialState(Initials{ZMT: 288, Noise: true, NoiseAmplitude: 2, Seed: 8})

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed should reproduce the same field at band %d", i)
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds should produce different fields")
	}
}

func TestInitialState0DIgnoresShaping(t *testing.T) {
	g, err := New(Options{Resolution: 0})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	T := g.InitialState(Initials{ZMT: 288, Cosine: true, Amplitude: 30, Noise: true, NoiseAmplitude: 5, Seed: 1})
	if len(T) != 1 || T[0] != 288 {
		t.Errorf("0D initial state should be the plain ZMT, got %v", T)
	}
}
