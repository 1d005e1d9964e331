package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// PlotGMT charts a global-mean temperature series against time.
func PlotGMT(times, gmt []float64) string {
	if len(gmt) < 2 {
		return "(not enough data points to plot)"
	}
	span := (times[len(times)-1] - times[0]) / ebm.SecondsPerYear
	return asciigraph.Plot(gmt,
		asciigraph.Height(14),
		asciigraph.Width(72),
		asciigraph.Caption(fmt.Sprintf("global mean temperature [K] over %.1f yr", span)))
}

// PlotProfile charts the final zonal temperature field against latitude.
func PlotProfile(centers []float64, T ebm.State) string {
	if len(T) < 2 {
		return "(single-band run has no profile)"
	}
	var b strings.Builder
	b.WriteString(asciigraph.Plot([]float64(T),
		asciigraph.Height(10),
		asciigraph.Width(72),
		asciigraph.Caption("zonal temperature [K], south to north")))
	b.WriteString(fmt.Sprintf("\nlatitudes: %+.1f° .. %+.1f° in %d bands\n",
		centers[0], centers[len(centers)-1], len(centers)))
	return b.String()
}
