// Package config loads model run configurations. A configuration
// document has four groups, mirroring the classic EBM setup files:
// equation parameters (eqparam), integration parameters (rk4input),
// initial conditions (initials) and an ordered list of flux function
// specs. Build assembles a fully wired, isolated run from it.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/fluxes"
	"github.com/klimalab/ebmsim/internal/grid"
	"github.com/klimalab/ebmsim/internal/model"
	"github.com/klimalab/ebmsim/internal/rk4"
)

type Config struct {
	EqParam  EqParam  `yaml:"eqparam"`
	RK4Input RK4Input `yaml:"rk4input"`
	Initials Initials `yaml:"initials"`
	Funcs    []Func   `yaml:"functions"`
}

type EqParam struct {
	// CAo is the heat capacity of the modeled column in J/(m^2 K).
	CAo float64 `yaml:"c_ao"`
}

type RK4Input struct {
	NumberOfIntegration   int     `yaml:"number_of_integration"`
	StepsizeOfIntegration float64 `yaml:"stepsize_of_integration"`
	SpatialResolution     float64 `yaml:"spatial_resolution"`
	BothHemispheres       bool    `yaml:"both_hemispheres"`
	LatitudinalCircle     bool    `yaml:"latitudinal_circle"`
	LatitudinalBelt       bool    `yaml:"latitudinal_belt"`
	EqCondition           bool    `yaml:"eq_condition"`
	EqConditionLength     int     `yaml:"eq_condition_length"`
	EqConditionAmplitude  float64 `yaml:"eq_condition_amplitude"`
	DataReadout           int     `yaml:"data_readout"`
	NumberOfExternals     int     `yaml:"number_of_externals"`
}

type Initials struct {
	Time                 float64 `yaml:"time"`
	ZMT                  float64 `yaml:"zmt"`
	GMT                  float64 `yaml:"gmt"`
	TemperatureCosine    bool    `yaml:"initial_temperature_cosine"`
	TemperatureAmplitude float64 `yaml:"initial_temperature_amplitude"`
	TemperatureNoise     bool    `yaml:"initial_temperature_noise"`
	TemperatureNoiseAmpl float64 `yaml:"initial_temperature_noise_amplitude"`
	Seed                 int64   `yaml:"seed"`
}

// Func is one entry of the functions list: a registry key and its
// parameter block, passed through to the resolved constructor.
type Func struct {
	Func   string         `yaml:"func"`
	Params map[string]any `yaml:"params"`
}

// Default returns the setup of the simple 0D greybody model: constant
// absorbed insolation against Planck emission, daily steps over ten
// years.
func Default() *Config {
	return &Config{
		EqParam: EqParam{CAo: 70 * 4.2e6},
		RK4Input: RK4Input{
			NumberOfIntegration:   365 * 10,
			StepsizeOfIntegration: ebm.SecondsPerDay,
			SpatialResolution:     0,
			BothHemispheres:       true,
			LatitudinalBelt:       true,
			DataReadout:           1,
		},
		Initials: Initials{ZMT: 273.15 + 17, GMT: 273.15 + 17},
		Funcs: []Func{
			{Func: "flux_down.insolation", Params: map[string]any{
				"q": 342.0, "albedo": "static", "albedoparam": map[string]any{"alpha": 0.3},
			}},
			{Func: "flux_up.planck", Params: map[string]any{"grey": 1.0}},
		},
	}
}

// Load reads a YAML configuration document. Scalar defaults from
// Default apply for absent keys; the functions list is taken verbatim.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.Funcs = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ebm.Configf(path, "cannot parse: %v", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Run is a fully assembled, isolated simulation: its grid, state,
// recorder and term instances belong to this run alone, so independent
// runs may execute concurrently.
type Run struct {
	Grid     *grid.Grid
	Equation *model.Equation
	Initial  ebm.State
	Time0    float64
	RK4      rk4.Config
}

// Build validates the configuration and wires the run. Configuration
// and data-source failures surface here, before integration starts.
func (c *Config) Build() (*Run, error) {
	g, err := grid.New(grid.Options{
		Resolution:      c.RK4Input.SpatialResolution,
		BothHemispheres: c.RK4Input.BothHemispheres,
		Belt:            c.RK4Input.LatitudinalBelt,
		Circle:          c.RK4Input.LatitudinalCircle,
	})
	if err != nil {
		return nil, err
	}

	if c.RK4Input.NumberOfExternals > 0 {
		externals := 0
		for _, f := range c.Funcs {
			if cat, _, err := fluxes.Resolve(f.Func); err == nil && cat == fluxes.CategoryForcing {
				externals++
			}
		}
		if externals != c.RK4Input.NumberOfExternals {
			return nil, ebm.Configf("rk4input.number_of_externals",
				"declared %d external forcings, configured %d", c.RK4Input.NumberOfExternals, externals)
		}
	}

	env := &fluxes.Env{
		Grid:     g,
		Rec:      ebm.NewRecorder(),
		StepSize: c.RK4Input.StepsizeOfIntegration,
	}
	specs := make([]model.FuncSpec, len(c.Funcs))
	for i, f := range c.Funcs {
		specs[i] = model.FuncSpec{Func: f.Func, Params: fluxes.Params(f.Params)}
	}
	eq, err := model.Compose(specs, model.EqParams{HeatCapacity: c.EqParam.CAo}, env)
	if err != nil {
		return nil, err
	}

	initial := g.InitialState(grid.Initials{
		Time:           c.Initials.Time,
		ZMT:            c.Initials.ZMT,
		GMT:            c.Initials.GMT,
		Cosine:         c.Initials.TemperatureCosine,
		Amplitude:      c.Initials.TemperatureAmplitude,
		Noise:          c.Initials.TemperatureNoise,
		NoiseAmplitude: c.Initials.TemperatureNoiseAmpl,
		Seed:           c.Initials.Seed,
	})

	return &Run{
		Grid:     g,
		Equation: eq,
		Initial:  initial,
		Time0:    c.Initials.Time,
		RK4: rk4.Config{
			Steps:       c.RK4Input.NumberOfIntegration,
			StepSize:    c.RK4Input.StepsizeOfIntegration,
			DataReadout: c.RK4Input.DataReadout,
			EqCondition: c.RK4Input.EqCondition,
			EqLength:    c.RK4Input.EqConditionLength,
			EqAmplitude: c.RK4Input.EqConditionAmplitude,
		},
	}, nil
}

// Equilibrium switches the configuration to a control run: the
// equilibrium condition is forced on with the given accuracy over a
// window of readouts, recording every step up to maxSteps.
func (c *Config) Equilibrium(accuracy float64, window, maxSteps int) {
	c.RK4Input.EqCondition = true
	c.RK4Input.EqConditionAmplitude = accuracy
	c.RK4Input.EqConditionLength = window
	c.RK4Input.DataReadout = 1
	c.RK4Input.NumberOfIntegration = maxSteps
}
