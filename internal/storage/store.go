package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

// Store keeps run records, one directory per run. It records what a run
// measured, never engine state.
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
	ID          string             `json:"id"`
	Template    string             `json:"template"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	G           float64            `json:"g"`
	Ticks       int                `json:"ticks"`
	SampleEvery int                `json:"sample_every"`
	Bodies      int                `json:"bodies"`
	Metrics     map[string]float64 `json:"metrics"`
	Series      []string           `json:"series"`
}

// Save writes meta and the sampled series of result under a new run ID.
// ID, Timestamp, Bodies, Metrics and Series are filled in from result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(meta.Template, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Bodies = len(result.Final)
	meta.Metrics = result.Metrics
	meta.Series = seriesNames(result)

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), meta.Series, result); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(template string, now time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", template, now.Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

func seriesNames(result *sim.Result) []string {
	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, names []string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"tick"}, names...)); err != nil {
		return err
	}
	for i, tick := range result.Ticks {
		row := make([]string, 0, len(names)+1)
		row = append(row, strconv.FormatUint(tick, 10))
		for _, name := range names {
			v := 0.0
			if s := result.Series[name]; i < len(s) {
				v = s[i]
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
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
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New("no runs recorded")
	}
	return &runs[len(runs)-1], nil
}

// LoadSeries reads back the sampled ticks and series of a run.
func (s *Store) LoadSeries(runID string) ([]uint64, map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return []uint64{}, map[string][]float64{}, nil
		}
		return nil, nil, err
	}
	if len(header) == 0 || header[0] != "tick" {
		return nil, nil, fmt.Errorf("run %s: malformed series header", runID)
	}

	ticks := make([]uint64, 0)
	series := make(map[string][]float64, len(header)-1)
	for _, name := range header[1:] {
		series[name] = make([]float64, 0)
	}

	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		tick, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("run %s line %d: %w", runID, line, err)
		}
		ticks = append(ticks, tick)
		for j, name := range header[1:] {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("run %s line %d: %w", runID, line, err)
			}
			series[name] = append(series[name], v)
		}
	}
	return ticks, series, nil
}
