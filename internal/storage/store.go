package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/solsim/internal/sim"
)

// Store keeps recorded runs and named save states under one directory:
//
//	<base>/runs/<id>/metadata.json
//	<base>/runs/<id>/telemetry.csv
//	<base>/states/<name>.json
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	for _, dir := range []string{s.runsDir(), s.statesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) runsDir() string   { return filepath.Join(s.baseDir, "runs") }
func (s *Store) statesDir() string { return filepath.Join(s.baseDir, "states") }

// StatesDir holds the named save states.
func (s *Store) StatesDir() string { return s.statesDir() }

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Ticks     int64              `json:"ticks"`
	Speed     float64            `json:"speed"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Sample is one telemetry row.
type Sample struct {
	Tick          int64   `json:"tick"`
	ActivePlanets int     `json:"active_planets"`
	BlackHole     float64 `json:"bh_radius"`
	SunActive     bool    `json:"sun_active"`
	MaxDilation   float64 `json:"max_dilation"`
}

var telemetryHeader = []string{"tick", "active_planets", "bh_radius", "sun_active", "max_dilation"}

// Recorder collects telemetry samples while a simulation runs.
type Recorder struct {
	every   int64
	samples []Sample
}

// NewRecorder keeps one sample every n ticks.
func NewRecorder(every int64) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every}
}

func (r *Recorder) Record(snap sim.Snapshot) {
	if snap.Tick%r.every != 0 {
		return
	}
	r.samples = append(r.samples, Sample{
		Tick:          snap.Tick,
		ActivePlanets: snap.ActivePlanets(),
		BlackHole:     snap.BlackHoleRadius(),
		SunActive:     snap.Sun.Active,
		MaxDilation:   snap.MaxTimeDilation(),
	})
}

func (r *Recorder) Samples() []Sample { return r.samples }

func (s *Store) SaveRun(meta RunMetadata, samples []Sample) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Preset, time.Now().UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.runsDir(), meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
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

	csvFile, err := os.Create(filepath.Join(runDir, "telemetry.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(telemetryHeader); err != nil {
		return "", err
	}
	for _, sm := range samples {
		row := []string{
			strconv.FormatInt(sm.Tick, 10),
			strconv.Itoa(sm.ActivePlanets),
			strconv.FormatFloat(sm.BlackHole, 'f', 6, 64),
			strconv.FormatBool(sm.SunActive),
			strconv.FormatFloat(sm.MaxDilation, 'f', 6, 64),
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

// List returns every recorded run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.runsDir())
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runsDir(), runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTelemetry(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.runsDir(), runID, "telemetry.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(telemetryHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		sm, err := parseSample(rec)
		if err != nil {
			continue
		}
		samples = append(samples, sm)
	}
	return samples, nil
}

func parseSample(rec []string) (Sample, error) {
	var sm Sample
	var err error
	if sm.Tick, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return sm, err
	}
	if sm.ActivePlanets, err = strconv.Atoi(rec[1]); err != nil {
		return sm, err
	}
	if sm.BlackHole, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return sm, err
	}
	if sm.SunActive, err = strconv.ParseBool(rec[3]); err != nil {
		return sm, err
	}
	if sm.MaxDilation, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return sm, err
	}
	return sm, nil
}

// StatePath is where a named save state lives.
func (s *Store) StatePath(name string) string {
	return filepath.Join(s.statesDir(), name+".json")
}

func (s *Store) SaveSnapshot(name string, snap sim.Snapshot) error {
	return SaveState(s.StatePath(name), snap)
}

func (s *Store) LoadSnapshot(name string) (*State, error) {
	return LoadState(s.StatePath(name))
}

// ListSnapshots returns the names of saved states, sorted.
func (s *Store) ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(s.statesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
