package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/unimpc/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var stateColumns = []string{"time", "x", "y", "theta", "v", "omega", "ref_x", "ref_y"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes how a run was produced. ID and Timestamp are
// assigned by Save.
type RunMetadata struct {
	ID          string             `json:"id"`
	Trajectory  string             `json:"trajectory"`
	Controller  string             `json:"controller"`
	Integrator  string             `json:"integrator"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Horizon     int                `json:"horizon,omitempty"`
	Q           []float64          `json:"q,omitempty"`
	R           []float64          `json:"r,omitempty"`
	Boundary    string             `json:"boundary,omitempty"`
	Fallback    string             `json:"fallback"`
	FailedTicks int                `json:"failed_ticks"`
	Metrics     map[string]float64 `json:"metrics"`
}

func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%s_%d", meta.Trajectory, meta.Controller, now.UnixNano())
	meta.Timestamp = now
	meta.FailedTicks = result.FailedTicks
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(stateColumns); err != nil {
		return "", err
	}

	// The final state has no command or setpoint; those cells stay empty.
	for i, x := range result.States {
		row := make([]string, len(stateColumns))
		row[0] = formatFloat(result.Times[i])
		for j := 0; j < 3 && j < len(x); j++ {
			row[1+j] = formatFloat(x[j])
		}
		if i < len(result.Controls) {
			u := result.Controls[i]
			for j := 0; j < 2 && j < len(u); j++ {
				row[4+j] = formatFloat(u[j])
			}
		}
		if i < len(result.Setpoints) {
			row[6] = formatFloat(result.Setpoints[i].X)
			row[7] = formatFloat(result.Setpoints[i].Y)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every readable run, oldest first.
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Series is a run's trace as read back from states.csv. Controls and Refs
// hold one entry per row that has them, so they may be shorter than
// States.
type Series struct {
	Times    []float64
	States   [][]float64
	Controls [][]float64
	Refs     [][]float64
}

func (s *Store) LoadStates(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(stateColumns)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}

	for i, record := range records[1:] {
		vals, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", statesFile, i+1, err)
		}

		series.Times = append(series.Times, vals[0])
		series.States = append(series.States, vals[1:4])
		if record[4] != "" {
			series.Controls = append(series.Controls, vals[4:6])
		}
		if record[6] != "" {
			series.Refs = append(series.Refs, vals[6:8])
		}
	}

	return series, nil
}

func parseRow(record []string) ([]float64, error) {
	vals := make([]float64, len(record))
	for j, cell := range record {
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", stateColumns[j], err)
		}
		vals[j] = v
	}
	return vals, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
