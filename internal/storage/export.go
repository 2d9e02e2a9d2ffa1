package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/solsim/internal/sim"
)

type ExportData struct {
	Preset  string             `json:"preset"`
	Seed    int64              `json:"seed"`
	Ticks   int64              `json:"ticks"`
	Final   sim.Snapshot       `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
	Samples []Sample           `json:"samples,omitempty"`
	Errors  []string           `json:"errors,omitempty"`
}

// ExportJSON writes a finished run as indented JSON.
func ExportJSON(w io.Writer, preset string, seed int64, result *sim.Result, samples []Sample) error {
	data := ExportData{
		Preset:  preset,
		Seed:    seed,
		Ticks:   result.Ticks,
		Final:   result.Final,
		Metrics: result.Metrics,
		Samples: samples,
	}
	for _, err := range result.Errors {
		data.Errors = append(data.Errors, err.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
