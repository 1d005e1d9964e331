// Package store persists finished runs under a base directory, one
// subdirectory per run with a metadata.json, the temperature series as
// CSV and the recorded flux diagnostics as CSV.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/klimalab/ebmsim/internal/ebm"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID              string    `json:"id"`
	Scenario        string    `json:"scenario"`
	Timestamp       time.Time `json:"timestamp"`
	Bands           int       `json:"bands"`
	Steps           int       `json:"steps"`
	StepSize        float64   `json:"stepsize"`
	DataReadout     int       `json:"data_readout"`
	Complete        bool      `json:"complete"`
	EquilibriumStep int       `json:"equilibrium_step"`
	FinalTime       float64   `json:"final_time"`
	FinalGMT        float64   `json:"final_gmt"`
}

// Save writes the run under a fresh ID derived from the scenario name
// and returns that ID.
func (s *Store) Save(scenario string, stepSize float64, readout int, result *ebm.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	bands := 0
	if len(result.ZMT) > 0 {
		bands = len(result.ZMT[0])
	}
	finalGMT := 0.0
	if len(result.GMT) > 0 {
		finalGMT = result.GMT[len(result.GMT)-1]
	}
	meta := RunMetadata{
		ID:              runID,
		Scenario:        scenario,
		Timestamp:       time.Now(),
		Bands:           bands,
		Steps:           result.StepsTaken,
		StepSize:        stepSize,
		DataReadout:     readout,
		Complete:        result.Complete,
		EquilibriumStep: result.EquilibriumStep,
		FinalTime:       result.FinalTime,
		FinalGMT:        finalGMT,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeSeries(filepath.Join(runDir, "series.csv"), result); err != nil {
		return "", err
	}
	if len(result.Diagnostics) > 0 {
		if err := writeDiagnostics(filepath.Join(runDir, "diagnostics.csv"), result, stepSize); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeSeries(path string, result *ebm.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(result.ZMT) == 0 {
		return nil
	}

	header := []string{"time", "gmt"}
	for i := range result.ZMT[0] {
		header = append(header, fmt.Sprintf("T%d", i))
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
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeDiagnostics lays the recorded terms out wide: one column group
// per term, one row per readout, band index in the column name. Row i
// carries the diagnostics of the i-th readout step, evaluated at the
// start of that step; the time column holds that evaluation time, one
// step before the matching entry of the temperature series. Series
// shorter than the readout count (once-per-run constants, aborted
// runs) leave their cells empty past their length.
func writeDiagnostics(path string, result *ebm.Result, stepSize float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	names := make([]string, 0, len(result.Diagnostics))
	for name := range result.Diagnostics {
		names = append(names, name)
	}
	sort.Strings(names)

	header := []string{"time"}
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

	rows := 0
	for _, series := range result.Diagnostics {
		if len(series) > rows {
			rows = len(series)
		}
	}
	for i := 0; i < rows; i++ {
		evalTime := result.FinalTime
		if i+1 < len(result.Times) {
			evalTime = result.Times[i+1] - stepSize
		}
		row := []string{strconv.FormatFloat(evalTime, 'f', 3, 64)}
		for _, name := range names {
			series := result.Diagnostics[name]
			if len(series) == 0 {
				continue
			}
			if i >= len(series) {
				for range series[0] {
					row = append(row, "")
				}
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

// List returns the metadata of all stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSeries reads back the temperature series of a stored run.
func (s *Store) LoadSeries(runID string) (times, gmt []float64, zmt []ebm.State, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []float64{}, []ebm.State{}, nil
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		g, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		state := make(ebm.State, 0, len(record)-2)
		for _, field := range record[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				break
			}
			state = append(state, v)
		}
		times = append(times, t)
		gmt = append(gmt, g)
		zmt = append(zmt, state)
	}

	return times, gmt, zmt, nil
}
