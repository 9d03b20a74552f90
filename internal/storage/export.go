package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/unimpc/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Steps     int               `json:"steps"`
	Times     []float64         `json:"times"`
	States    [][]float64       `json:"states"`
	Controls  [][]float64       `json:"controls"`
	Setpoints []dynamo.Setpoint `json:"setpoints,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

// ExportJSON writes the full trace of a run as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	meta.FailedTicks = result.FailedTicks
	meta.Metrics = result.Metrics
	data := ExportData{
		RunMetadata: meta,
		Steps:       result.StepsTaken,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
		Controls:    make([][]float64, len(result.Controls)),
		Setpoints:   result.Setpoints,
	}

	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}
	for _, err := range result.Errors {
		data.Errors = append(data.Errors, err.Error())
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Result rebuilds a result from a stored trace. Setpoints carry position
// only; stored runs do not keep reference velocity.
func (s *Series) Result(meta RunMetadata) *dynamo.Result {
	res := &dynamo.Result{
		Times:       s.Times,
		States:      make([]dynamo.State, len(s.States)),
		Controls:    make([]dynamo.Control, len(s.Controls)),
		Setpoints:   make([]dynamo.Setpoint, len(s.Refs)),
		Metrics:     meta.Metrics,
		StepsTaken:  len(s.Controls),
		FailedTicks: meta.FailedTicks,
	}
	for i, x := range s.States {
		res.States[i] = x
	}
	for i, u := range s.Controls {
		res.Controls[i] = u
	}
	for i, r := range s.Refs {
		res.Setpoints[i] = dynamo.Setpoint{X: r[0], Y: r[1]}
	}
	return res
}
