package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// ExportData is the JSON export shape of a finished run.
type ExportData struct {
	Scenario        string                 `json:"scenario"`
	Bands           int                    `json:"bands"`
	StepSize        float64                `json:"stepsize"`
	Steps           int                    `json:"steps"`
	Complete        bool                   `json:"complete"`
	EquilibriumStep int                    `json:"equilibrium_step"`
	Times           []float64              `json:"times"`
	GMT             []float64              `json:"gmt"`
	ZMT             []ebm.State            `json:"zmt"`
	Diagnostics     map[string][]ebm.State `json:"diagnostics,omitempty"`
}

func exportData(scenario string, stepSize float64, result *ebm.Result, diagnostics bool) ExportData {
	bands := 0
	if len(result.ZMT) > 0 {
		bands = len(result.ZMT[0])
	}
	data := ExportData{
		Scenario:        scenario,
		Bands:           bands,
		StepSize:        stepSize,
		Steps:           result.StepsTaken,
		Complete:        result.Complete,
		EquilibriumStep: result.EquilibriumStep,
		Times:           result.Times,
		GMT:             result.GMT,
		ZMT:             result.ZMT,
	}
	if diagnostics {
		data.Diagnostics = result.Diagnostics
	}
	return data
}

// ExportJSON writes the run as indented JSON; an empty path selects
// stdout.
func ExportJSON(path, scenario string, stepSize float64, result *ebm.Result, diagnostics bool) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData(scenario, stepSize, result, diagnostics))
}

// ExportCSV writes the temperature series (and optionally diagnostics
// columns) as one flat CSV; an empty path selects stdout.
func ExportCSV(path string, result *ebm.Result, diagnostics bool) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	if len(result.ZMT) == 0 {
		return nil
	}

	var names []string
	if diagnostics {
		for name := range result.Diagnostics {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	header := []string{"time", "gmt"}
	for i := range result.ZMT[0] {
		header = append(header, fmt.Sprintf("T%d", i))
	}
	for _, name := range names {
		series := result.Diagnostics[name]
		if len(series) == 0 {
			continue
		}
		for i := range series[0] {
			header = append(header, fmt.Sprintf("%s%d", name, i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 3, 64),
			strconv.FormatFloat(result.GMT[i], 'f', 6, 64),
		}
		for _, v := range result.ZMT[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		for _, name := range names {
			series := result.Diagnostics[name]
			if i >= len(series) {
				continue
			}
			for _, v := range series[i] {
				row = append(row, strconv.FormatFloat(v, 'e', 6, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
