package forcingdata

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klimalab/ebmsim/internal/ebm"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forcing.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWhitespaceDelimited(t *testing.T) {
	path := writeFile(t, "# year forcing\n0 1.5\n10 2.5\n20 -0.5\n")

	s, err := Load(Options{Path: path, Header: 1, TimeUnit: "year"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", s.Len())
	}
	first, last := s.Span()
	if first != 0 || last != 20*ebm.SecondsPerYear {
		t.Errorf("span: got (%g, %g)", first, last)
	}
	if _, v := s.At(1); v != 2.5 {
		t.Errorf("expected value 2.5, got %g", v)
	}
}

func TestLoadCustomColumns(t *testing.T) {
	path := writeFile(t, "a;0;1.5\nb;10;2.5\n")

	s, err := Load(Options{Path: path, Delimiter: ";", TimeCol: 1, ValueCol: 2, TimeUnit: "day"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", s.Len())
	}
	if tt, _ := s.At(1); tt != 10*ebm.SecondsPerDay {
		t.Errorf("expected 10 days in seconds, got %g", tt)
	}
}

func TestLoadBeforePresent(t *testing.T) {
	// A paleo record counts years backwards from the origin; 100 BP
	// must land before 50 BP on the internal axis.
	path := writeFile(t, "100 1.0\n50 2.0\n")

	s, err := Load(Options{Path: path, TimeUnit: "year", BeforePresent: true})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	t0, v0 := s.At(0)
	t1, v1 := s.At(1)
	if t0 != -100*ebm.SecondsPerYear || v0 != 1.0 {
		t.Errorf("first sample: got (%g, %g)", t0, v0)
	}
	if t1 != -50*ebm.SecondsPerYear || v1 != 2.0 {
		t.Errorf("second sample: got (%g, %g)", t1, v1)
	}
}

func TestLoadInputScaling(t *testing.T) {
	path := writeFile(t, "0 10\n1 20\n")

	s, err := Load(Options{Path: path, TimeUnit: "second", KInput: 2, MInput: 1})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, v := s.At(0); v != 21 {
		t.Errorf("expected 10*2+1=21, got %g", v)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing file", Options{Path: "/nonexistent/forcing.txt", TimeUnit: "year"}},
		{"unknown unit", Options{Path: writeFile(t, "0 1\n"), TimeUnit: "fortnight"}},
		{"bad value", Options{Path: writeFile(t, "0 abc\n"), TimeUnit: "year"}},
		{"missing column", Options{Path: writeFile(t, "0\n"), TimeUnit: "year"}},
		{"empty file", Options{Path: writeFile(t, ""), TimeUnit: "year"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opts)
			if !errors.Is(err, ebm.ErrDataSource) {
				t.Errorf("expected data source error, got %v", err)
			}
		})
	}
}

func TestNewSeriesSorts(t *testing.T) {
	s, err := NewSeries([]float64{20, 0, 10}, []float64{3, 1, 2}, Options{})
	if err != nil {
		t.Fatalf("new series failed: %v", err)
	}
	for i := 0; i < s.Len(); i++ {
		tt, v := s.At(i)
		if tt != float64(i*10) || v != float64(i+1) {
			t.Errorf("sample %d: got (%g, %g)", i, tt, v)
		}
	}
}

func TestNewSeriesLengthMismatch(t *testing.T) {
	_, err := NewSeries([]float64{0, 1}, []float64{1}, Options{})
	if !errors.Is(err, ebm.ErrDataSource) {
		t.Errorf("expected data source error, got %v", err)
	}
}

func TestCursorLookup(t *testing.T) {
	s, err := NewSeries([]float64{100, 200, 300}, []float64{1, 2, 3}, Options{})
	if err != nil {
		t.Fatalf("new series failed: %v", err)
	}
	c := s.NewCursor()

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},   // before the record
		{100, 0}, // at the first sample the previous (zero) value holds
		{150, 1}, // step function holds the last passed sample
		{250, 2},
		{300, 2},
		{1000, 0}, // past the record
	}
	for _, tt := range tests {
		if got := c.Lookup(tt.t); got != tt.want {
			t.Errorf("lookup(%g): expected %g, got %g", tt.t, tt.want, got)
		}
	}
}

func TestCursorOutputScaling(t *testing.T) {
	s, err := NewSeries([]float64{0, 100}, []float64{10, 20}, Options{KOutput: 0.5, MOutput: 1})
	if err != nil {
		t.Fatalf("new series failed: %v", err)
	}
	c := s.NewCursor()

	if got := c.Lookup(50); math.Abs(got-6) > 1e-12 {
		t.Errorf("expected 10*0.5+1=6, got %g", got)
	}
}

func TestCursorsAreIndependent(t *testing.T) {
	s, err := NewSeries([]float64{0, 100, 200}, []float64{1, 2, 3}, Options{})
	if err != nil {
		t.Fatalf("new series failed: %v", err)
	}

	a := s.NewCursor()
	b := s.NewCursor()
	a.Lookup(150)
	if got := b.Lookup(50); got != 1 {
		t.Errorf("cursor b should be unaffected by a, got %g", got)
	}
}
