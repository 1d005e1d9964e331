package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/klimalab/ebmsim/internal/config"
	"github.com/klimalab/ebmsim/internal/ebm"
	"github.com/klimalab/ebmsim/internal/fluxes"
	"github.com/klimalab/ebmsim/internal/rk4"
	"github.com/klimalab/ebmsim/internal/store"
	"github.com/klimalab/ebmsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	verbose    bool

	steps    int
	stepsize float64
	readout  int

	ensembleRuns int
	seedStart    int64

	eqAccuracy float64
	eqWindow   int
	eqMaxSteps int

	exportPath      string
	withDiagnostics bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ebmsim",
		Short: "latitudinal energy balance model lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.InfoLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ebmsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log integration progress")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a model scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "override number of integration steps")
	runCmd.Flags().Float64Var(&stepsize, "stepsize", 0, "override step size in seconds")
	runCmd.Flags().IntVar(&readout, "readout", 0, "override data readout interval")
	runCmd.Flags().IntVar(&ensembleRuns, "ensemble", 0, "run N ensemble members in parallel")
	runCmd.Flags().Int64Var(&seedStart, "seed-start", time.Now().UnixNano(), "first ensemble member seed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}
	exportJSONCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVRun,
	}
	exportCSVCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "plot a stored run's mean temperature as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVGRun,
	}
	exportSVGCmd.Flags().StringVarP(&exportPath, "out", "o", "run.svg", "output file")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	equilibriumCmd := &cobra.Command{
		Use:   "equilibrium [scenario]",
		Short: "integrate a scenario to steady state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEquilibrium,
	}
	equilibriumCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	equilibriumCmd.Flags().Float64Var(&eqAccuracy, "accuracy", 1e-3, "steady-state GMT amplitude in K")
	equilibriumCmd.Flags().IntVar(&eqWindow, "window", 365, "readouts the amplitude is measured over")
	equilibriumCmd.Flags().IntVar(&eqMaxSteps, "max-steps", 365*1000, "give up after this many steps")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	functionsCmd := &cobra.Command{
		Use:   "functions",
		Short: "list registered flux functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range fluxes.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd,
		exportSVGCmd, liveCmd, equilibriumCmd, presetsCmd, functionsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadScenario resolves a configuration from the positional preset name
// or the --config flag; the config file wins when both are given.
func loadScenario(args []string) (*config.Config, string, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, "custom", nil
	}
	name := "0d_greybody"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		names := config.ListPresets()
		sort.Strings(names)
		return nil, "", fmt.Errorf("unknown scenario: %s (available: %v)", name, names)
	}
	return cfg.Clone(), name, nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("steps") {
		cfg.RK4Input.NumberOfIntegration = steps
	}
	if cmd.Flags().Changed("stepsize") {
		cfg.RK4Input.StepsizeOfIntegration = stepsize
	}
	if cmd.Flags().Changed("readout") {
		cfg.RK4Input.DataReadout = readout
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, scenario, err := loadScenario(args)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	if ensembleRuns > 0 {
		return runEnsemble(cfg, scenario)
	}

	run, err := cfg.Build()
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s (%d bands, %d steps)...\n", scenario, run.Grid.Dim(), run.RK4.Steps)
	start := time.Now()

	result, err := rk4.New().Run(context.Background(), run.Equation, run.Time0, run.Initial, run.RK4)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(scenario, run.RK4.StepSize, run.RK4.DataReadout, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, readouts: %d\n", result.StepsTaken, len(result.Times))
	if result.EquilibriumStep >= 0 {
		fmt.Printf("steady state at step %d\n", result.EquilibriumStep)
	}
	fmt.Printf("final GMT: %.3f K\n", result.GMT[len(result.GMT)-1])
	return nil
}

func runEnsemble(cfg *config.Config, scenario string) error {
	fmt.Printf("running %d-member ensemble of %s...\n", ensembleRuns, scenario)
	start := time.Now()

	ens := config.NewEnsemble(cfg, ensembleRuns, seedStart)
	results, err := ens.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tSEED\tSTEPS\tFINAL GMT")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f K\n",
			i, seedStart+int64(i), res.StepsTaken, res.GMT[len(res.GMT)-1])
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBANDS\tSTEPS\tFINAL GMT\tSTATUS")

	for _, run := range runs {
		status := "complete"
		if !run.Complete {
			status = "aborted"
		}
		if run.EquilibriumStep >= 0 {
			status = fmt.Sprintf("equilibrium@%d", run.EquilibriumStep)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f K\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bands,
			run.Steps,
			run.FinalGMT,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, gmt, zmt, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s, bands: %d, samples: %d\n\n", meta.Scenario, meta.Bands, len(times))

	fmt.Println(viz.PlotGMT(times, gmt))
	fmt.Println()

	if meta.Bands > 1 {
		centers := make([]float64, meta.Bands)
		// Band centers are not stored; index the profile by band.
		for i := range centers {
			centers[i] = float64(i)
		}
		final := zmt[len(zmt)-1]
		fmt.Println(viz.PlotProfile(centers, final))
	}
	return nil
}

// loadStoredResult rebuilds the exportable part of a result from disk.
// Recorded diagnostics are not read back; exports of stored runs carry
// the temperature series only.
func loadStoredResult(st *store.Store, runID string) (*store.RunMetadata, *ebm.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	times, gmt, zmt, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	res := &ebm.Result{
		Times:           times,
		GMT:             gmt,
		ZMT:             zmt,
		StepsTaken:      meta.Steps,
		EquilibriumStep: meta.EquilibriumStep,
		Complete:        meta.Complete,
		FinalTime:       meta.FinalTime,
	}
	if len(zmt) > 0 {
		res.FinalState = zmt[len(zmt)-1]
	}
	return meta, res, nil
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, res, err := loadStoredResult(st, args[0])
	if err != nil {
		return err
	}
	return store.ExportJSON(exportPath, meta.Scenario, meta.StepSize, res, false)
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	_, res, err := loadStoredResult(st, args[0])
	if err != nil {
		return err
	}
	return store.ExportCSV(exportPath, res, false)
}

func exportSVGRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	_, res, err := loadStoredResult(st, args[0])
	if err != nil {
		return err
	}
	if err := viz.WriteSVG(exportPath, res, 800, 300); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", exportPath)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, scenario, err := loadScenario(args)
	if err != nil {
		return err
	}
	logrus.SetLevel(logrus.ErrorLevel)

	m, err := viz.NewModel(cfg, scenario)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runEquilibrium(cmd *cobra.Command, args []string) error {
	cfg, scenario, err := loadScenario(args)
	if err != nil {
		return err
	}
	cfg.Equilibrium(eqAccuracy, eqWindow, eqMaxSteps)

	run, err := cfg.Build()
	if err != nil {
		return err
	}

	fmt.Printf("integrating %s to steady state (amplitude < %g K over %d readouts)...\n",
		scenario, eqAccuracy, eqWindow)
	start := time.Now()

	result, err := rk4.New().Run(context.Background(), run.Equation, run.Time0, run.Initial, run.RK4)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	if result.EquilibriumStep < 0 {
		fmt.Printf("no steady state within %d steps; final GMT %.3f K\n",
			result.StepsTaken, result.GMT[len(result.GMT)-1])
		return nil
	}
	years := result.FinalTime / ebm.SecondsPerYear
	fmt.Printf("steady state at step %d (%.1f yr)\n", result.EquilibriumStep, years)
	fmt.Printf("equilibrium GMT: %.3f K\n", result.GMT[len(result.GMT)-1])
	return nil
}
