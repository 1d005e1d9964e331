// Package viz provides terminal-based visualization for model runs.
//
// The package implements a live run view using the Bubble Tea framework
// alongside static asciigraph charts for stored runs:
//
//   - [Model]: live integration view with global-mean chart and the
//     zonal temperature profile
//   - [PlotGMT], [PlotProfile]: static charts for finished runs
//
// # Key Bindings
//
//	Space - Pause/Resume integration
//	R     - Reset to the initial state
//	Q     - Quit
package viz
