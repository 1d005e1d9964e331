package viz

import (
	"fmt"
	"os"
	"strings"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// SVGGMT renders the global mean temperature series as a standalone SVG
// polyline on a dark background, with the equilibrium temperature range
// annotated. Suitable for embedding run output in reports.
func SVGGMT(times, gmt []float64, width, height int) string {
	if len(times) < 2 || len(times) != len(gmt) {
		return ""
	}

	minT, maxT := gmt[0], gmt[0]
	for _, v := range gmt {
		if v < minT {
			minT = v
		}
		if v > maxT {
			maxT = v
		}
	}
	rangeT := maxT - minT
	if rangeT == 0 {
		rangeT = 1
	}
	minT -= rangeT * 0.1
	maxT += rangeT * 0.1
	rangeT = maxT - minT

	t0 := times[0]
	rangeX := times[len(times)-1] - t0
	if rangeX == 0 {
		rangeX = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a14"/>
`, width, height, width, height))

	// Horizontal gridlines at the extremes, labeled in Kelvin.
	for _, v := range []float64{gmt[0], minT + rangeT*0.5} {
		y := float64(height) - (v-minT)/rangeT*float64(height)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#223" stroke-width="1"/>
<text x="4" y="%.1f" fill="#667" font-size="10" font-family="monospace">%.2f K</text>
`, y, width, y, y-3, v))
	}

	sb.WriteString(`<path fill="none" stroke="#44ccff" stroke-width="1.5" d="M`)
	for i := range times {
		x := (times[i] - t0) / rangeX * float64(width)
		y := float64(height) - (gmt[i]-minT)/rangeT*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")

	years := rangeX / ebm.SecondsPerYear
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#889" font-size="11" font-family="monospace" text-anchor="end">GMT over %.1f yr</text>
</svg>`, width-6, height-6, years))
	return sb.String()
}

// WriteSVG writes the rendered GMT series of res to path.
func WriteSVG(path string, res *ebm.Result, width, height int) error {
	svg := SVGGMT(res.Times, res.GMT, width, height)
	if svg == "" {
		return fmt.Errorf("viz: need at least two readouts to plot")
	}
	return os.WriteFile(path, []byte(svg), 0o644)
}
