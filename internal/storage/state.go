package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/solsim/internal/sim"
)

// TimestampLayout matches the timestamps written by earlier versions of
// the state file.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// ErrMalformedState indicates a state file that parsed as JSON but lacks a
// required section.
var ErrMalformedState = errors.New("storage: malformed state file")

// State is the on-disk save file.
type State struct {
	Timestamp string         `json:"timestamp"`
	BlackHole *BlackHoleFile `json:"black_hole"`
	Planets   []PlanetTuple  `json:"planets"`
	Sun       *SunFile       `json:"sun"`
}

type BlackHoleFile struct {
	Exists bool    `json:"exists"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type SunFile struct {
	Active bool    `json:"active"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// PlanetTuple is stored as [distance, angle, active], positionally matched
// to the simulation's planet list.
type PlanetTuple struct {
	Distance float64
	Angle    float64
	Active   bool
}

func (p PlanetTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Distance, p.Angle, p.Active})
}

func (p *PlanetTuple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("%w: planet entry has %d fields, want 3", ErrMalformedState, len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Distance); err != nil {
		return fmt.Errorf("planet distance: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Angle); err != nil {
		return fmt.Errorf("planet angle: %w", err)
	}
	if err := json.Unmarshal(raw[2], &p.Active); err != nil {
		return fmt.Errorf("planet active: %w", err)
	}
	return nil
}

// NewState captures the persisted subset of a snapshot.
func NewState(snap sim.Snapshot, now time.Time) *State {
	st := &State{
		Timestamp: now.Format(TimestampLayout),
		BlackHole: &BlackHoleFile{},
		Planets:   make([]PlanetTuple, len(snap.Planets)),
		Sun:       &SunFile{Active: snap.Sun.Active, X: snap.Sun.X, Y: snap.Sun.Y},
	}
	if bh := snap.BlackHole; bh != nil {
		st.BlackHole = &BlackHoleFile{Exists: true, X: bh.X, Y: bh.Y, Radius: bh.Radius}
	}
	for i, p := range snap.Planets {
		st.Planets[i] = PlanetTuple{Distance: p.Distance, Angle: p.Angle, Active: p.Active}
	}
	return st
}

// Snapshot turns the file back into the partial snapshot sim.Restore expects.
func (st *State) Snapshot() sim.Snapshot {
	snap := sim.Snapshot{
		Sun:     sim.SunState{Active: st.Sun.Active, X: st.Sun.X, Y: st.Sun.Y},
		Planets: make([]sim.PlanetState, len(st.Planets)),
	}
	if st.BlackHole.Exists {
		snap.BlackHole = &sim.BlackHoleState{X: st.BlackHole.X, Y: st.BlackHole.Y, Radius: st.BlackHole.Radius}
	}
	for i, p := range st.Planets {
		snap.Planets[i] = sim.PlanetState{Distance: p.Distance, Angle: p.Angle, Active: p.Active}
	}
	return snap
}

func (st *State) validate() error {
	switch {
	case st.Sun == nil:
		return fmt.Errorf("%w: missing sun", ErrMalformedState)
	case st.BlackHole == nil:
		return fmt.Errorf("%w: missing black_hole", ErrMalformedState)
	case st.Planets == nil:
		return fmt.Errorf("%w: missing planets", ErrMalformedState)
	}
	return nil
}

// SaveState writes snap to path. The file is replaced atomically so a failed
// save never leaves a truncated state behind.
func SaveState(path string, snap sim.Snapshot) error {
	data, err := json.MarshalIndent(NewState(snap, time.Now()), "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState reads a state file written by SaveState.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("load state %s: %w", path, err)
	}
	if err := st.validate(); err != nil {
		return nil, fmt.Errorf("load state %s: %w", path, err)
	}
	return &st, nil
}
