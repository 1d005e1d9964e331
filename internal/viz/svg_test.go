package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klimalab/ebmsim/internal/ebm"
)

func TestSVGGMT(t *testing.T) {
	times := []float64{0, ebm.SecondsPerYear, 2 * ebm.SecondsPerYear}
	gmt := []float64{288, 286, 285}

	svg := SVGGMT(times, gmt, 640, 240)
	if !strings.HasPrefix(svg, `<?xml`) || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("output is not a standalone SVG document")
	}
	for _, want := range []string{`width="640"`, "<path", "288.00 K", "2.0 yr"} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSVGGMTDegenerateInput(t *testing.T) {
	if s := SVGGMT([]float64{0}, []float64{288}, 100, 100); s != "" {
		t.Error("a single readout cannot be plotted")
	}
	if s := SVGGMT([]float64{0, 1}, []float64{288}, 100, 100); s != "" {
		t.Error("mismatched series lengths must be rejected")
	}
}

func TestWriteSVG(t *testing.T) {
	res := &ebm.Result{
		Times: []float64{0, ebm.SecondsPerDay},
		GMT:   []float64{288, 287.5},
	}
	path := filepath.Join(t.TempDir(), "run.svg")
	if err := WriteSVG(path, res, 320, 120); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "stroke") {
		t.Error("file does not contain the plotted path")
	}

	if err := WriteSVG(path, &ebm.Result{}, 320, 120); err == nil {
		t.Error("expected an error for an empty result")
	}
}
