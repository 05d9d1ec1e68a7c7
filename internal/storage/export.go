package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/gravsim/internal/sim"
)

type ExportData struct {
	Run     RunMetadata          `json:"run"`
	Ticks   []uint64             `json:"ticks"`
	Series  map[string][]float64 `json:"series"`
	Metrics map[string]float64   `json:"metrics"`
}

// ExportJSON writes a recorded run with its series as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	ticks, series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	return encode(w, ExportData{Run: *meta, Ticks: ticks, Series: series, Metrics: meta.Metrics})
}

// ExportResult writes an unsaved result in the same layout as ExportJSON.
func ExportResult(w io.Writer, meta RunMetadata, result *sim.Result) error {
	meta.Bodies = len(result.Final)
	meta.Metrics = result.Metrics
	meta.Series = seriesNames(result)
	return encode(w, ExportData{Run: meta, Ticks: result.Ticks, Series: result.Series, Metrics: result.Metrics})
}

func encode(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
