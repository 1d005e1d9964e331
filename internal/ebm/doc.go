// Package ebm provides the core primitives shared by the energy-balance
// model engine:
//
//   - [State]: zonal temperature field (one entry per latitude band,
//     a single entry for 0D runs)
//   - [Recorder]: decimated diagnostics buffer written by flux terms
//   - [Result]: output time series of an integration run
//   - error taxonomy: configuration, numerical and data-source errors
//
// # Thread Safety
//
// A State, Recorder and Result belong to exactly one integration run and
// are not safe for concurrent use. Independent runs must build independent
// instances; see the ensemble runner in internal/config.
package ebm
