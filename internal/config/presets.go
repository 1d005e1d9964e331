package config

import "github.com/klimalab/ebmsim/internal/ebm"

// Presets are ready-to-run model setups covering the canonical EBM
// hierarchy, from the 0D greybody up to the 1D Sellers model.
var Presets = map[string]*Config{
	// Constant absorbed insolation against grey Planck emission.
	"0d_greybody": Default(),

	// 0D with episodic negative forcing spikes, a crude volcanic record.
	"0d_volcanic": {
		EqParam: EqParam{CAo: 70 * 4.2e6},
		RK4Input: RK4Input{
			NumberOfIntegration:   365 * 100,
			StepsizeOfIntegration: ebm.SecondsPerDay,
			BothHemispheres:       true,
			LatitudinalBelt:       true,
			DataReadout:           10,
		},
		Initials: Initials{ZMT: 288.15, GMT: 288.15},
		Funcs: []Func{
			{Func: "flux_down.insolation", Params: map[string]any{
				"q": 342.0, "albedo": "static", "albedoparam": map[string]any{"alpha": 0.3},
			}},
			{Func: "flux_up.planck", Params: map[string]any{"grey": 0.612}},
			{Func: "forcing.random", Params: map[string]any{
				"start":     0.0,
				"stop":      36500.0,
				"steps":     1.0,
				"timeunit":  "day",
				"strength":  4.0,
				"frequency": "intermediate",
				"behaviour": "exponential",
				"lifetime":  365.0,
				"sign":      "negative",
				"seed":      21,
			}},
		},
	},

	// 1D Budyko model on 10 degree belts with step-function ice albedo,
	// linearized OLR and diffusive meridional transfer.
	"1d_budyko": {
		EqParam: EqParam{CAo: 70 * 4.2e6},
		RK4Input: RK4Input{
			NumberOfIntegration:   365 * 30,
			StepsizeOfIntegration: ebm.SecondsPerDay,
			SpatialResolution:     10,
			BothHemispheres:       true,
			LatitudinalBelt:       true,
			DataReadout:           10,
		},
		Initials: Initials{
			ZMT: 288.15, GMT: 288.15,
			TemperatureCosine:    true,
			TemperatureAmplitude: 30,
		},
		Funcs: []Func{
			{Func: "flux_down.insolation", Params: map[string]any{
				"q": 342.0, "albedo": "static_bud",
				"albedoparam": map[string]any{"alpha_p": 0.3, "border_1": 60.0, "border_2": 70.0},
			}},
			{Func: "flux_up.budyko_noclouds", Params: map[string]any{"a": 203.3, "b": 2.09}},
			{Func: "transfer.budyko", Params: map[string]any{"beta": 3.81}},
		},
	},

	// 1D Sellers model: smooth ice-albedo feedback, tanh-damped emission
	// and the three-component meridional energy transport.
	"1d_sellers": {
		EqParam: EqParam{CAo: 70 * 4.2e6},
		RK4Input: RK4Input{
			NumberOfIntegration:   365 * 30,
			StepsizeOfIntegration: ebm.SecondsPerDay,
			SpatialResolution:     10,
			BothHemispheres:       true,
			LatitudinalBelt:       true,
			DataReadout:           10,
		},
		Initials: Initials{
			ZMT: 288.15, GMT: 288.15,
			TemperatureCosine:    true,
			TemperatureAmplitude: 30,
		},
		Funcs: []Func{
			{Func: "flux_down.insolation", Params: map[string]any{
				"q": 342.0, "albedo": "smooth",
				"albedoparam": map[string]any{
					"t_ref": 273.15, "alpha_f": 0.3, "alpha_i": 0.7, "steepness": 0.3,
				},
			}},
			{Func: "flux_up.sellers", Params: map[string]any{}},
			{Func: "transfer.sellers", Params: map[string]any{}},
		},
	},
}

// GetPreset returns the named preset, or nil if unknown.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns the preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
