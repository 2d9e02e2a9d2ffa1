package sim

import (
	"fmt"

	"github.com/san-kum/solsim/internal/vmath"
)

type EventKind string

const (
	EventCollision         EventKind = "collision"
	EventSunCollision      EventKind = "sun_collision"
	EventAbsorptionStarted EventKind = "absorption_started"
	EventAbsorbed          EventKind = "absorbed"
	EventEjected           EventKind = "ejected"
	EventEscaped           EventKind = "escaped"
	EventSunAbsorbed       EventKind = "sun_absorbed"
	EventBlackHoleCreated  EventKind = "black_hole_created"
	EventBlackHoleReset    EventKind = "black_hole_reset"
	EventBlackHoleSize     EventKind = "black_hole_size"
	EventReset             EventKind = "reset"
	EventSpeed             EventKind = "speed"
	EventRestored          EventKind = "restored"
)

// Event is something noteworthy that happened to the simulation, either
// during a tick or as the result of a user action.
type Event struct {
	Kind  EventKind `json:"kind"`
	Tick  int64     `json:"tick"`
	Body  string    `json:"body,omitempty"`
	Other string    `json:"other,omitempty"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Value float64   `json:"value,omitempty"`
}

// Message is the one-line text shown to the user for the event.
func (e Event) Message() string {
	switch e.Kind {
	case EventCollision:
		return fmt.Sprintf("%s collided with %s", e.Body, e.Other)
	case EventSunCollision:
		return fmt.Sprintf("%s fell into the sun", e.Body)
	case EventAbsorptionStarted:
		return fmt.Sprintf("%s is being pulled into the black hole", e.Body)
	case EventAbsorbed:
		return fmt.Sprintf("%s was absorbed", e.Body)
	case EventEjected:
		return fmt.Sprintf("%s was slingshot out of orbit", e.Body)
	case EventEscaped:
		return fmt.Sprintf("%s left the system", e.Body)
	case EventSunAbsorbed:
		return "The sun was swallowed by the black hole"
	case EventBlackHoleCreated:
		return "Black hole created!"
	case EventBlackHoleReset:
		return "Black hole reset!"
	case EventBlackHoleSize:
		return fmt.Sprintf("Black hole size: %d", int(e.Value))
	case EventReset:
		return "Simulation reset!"
	case EventSpeed:
		return fmt.Sprintf("Speed set to %gx", e.Value)
	case EventRestored:
		return "State loaded"
	}
	return string(e.Kind)
}

// FrameReport is the outcome of one tick.
type FrameReport struct {
	Tick   int64
	Events []Event
	Errors []*PhaseError
}

// Err returns the last phase error of the frame, or nil.
func (r *FrameReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[len(r.Errors)-1]
}

type SunState struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	GlowRadius float64 `json:"glow_radius"`
	Active     bool    `json:"active"`
}

type PlanetState struct {
	Name           string      `json:"name"`
	Color          string      `json:"color"`
	Rings          bool        `json:"rings,omitempty"`
	RingColor      string      `json:"ring_color,omitempty"`
	X              float64     `json:"x"`
	Y              float64     `json:"y"`
	Radius         float64     `json:"radius"`
	Distance       float64     `json:"distance"`
	Angle          float64     `json:"angle"`
	Active         bool        `json:"active"`
	Ejected        bool        `json:"ejected,omitempty"`
	Absorbing      bool        `json:"absorbing,omitempty"`
	TimeDilation   float64     `json:"time_dilation"`
	Flash          float64     `json:"flash,omitempty"`
	CollisionTicks int         `json:"collision_ticks,omitempty"`
	CollisionPos   *vmath.Vec2 `json:"collision_pos,omitempty"`
}

type SpiralState struct {
	Planet   string  `json:"planet"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Progress float64 `json:"progress"`
	Stretch  float64 `json:"stretch"`
}

type BlackHoleState struct {
	X            float64       `json:"x"`
	Y            float64       `json:"y"`
	Radius       float64       `json:"radius"`
	Mass         float64       `json:"mass"`
	EventHorizon float64       `json:"event_horizon"`
	EffectRadius float64       `json:"effect_radius"`
	Spirals      []SpiralState `json:"spirals,omitempty"`
}

// Stats are running totals since the last reset.
type Stats struct {
	Collisions    int `json:"collisions"`
	SunCollisions int `json:"sun_collisions"`
	Absorbed      int `json:"absorbed"`
	Ejected       int `json:"ejected"`
	Escaped       int `json:"escaped"`
}

// Snapshot is a read-only copy of the whole simulation, safe to hand to
// renderers and other goroutines.
type Snapshot struct {
	Tick      int64           `json:"tick"`
	Speed     float64         `json:"speed"`
	SpawnSize int             `json:"spawn_size"`
	Sun       SunState        `json:"sun"`
	Planets   []PlanetState   `json:"planets"`
	BlackHole *BlackHoleState `json:"black_hole,omitempty"`
	Stats     Stats           `json:"stats"`
}

// ActivePlanets counts planets still in the simulation.
func (s Snapshot) ActivePlanets() int {
	n := 0
	for _, p := range s.Planets {
		if p.Active {
			n++
		}
	}
	return n
}

// MaxTimeDilation is the strongest dilation felt by any active planet.
func (s Snapshot) MaxTimeDilation() float64 {
	m := 1.0
	for _, p := range s.Planets {
		if p.Active && p.TimeDilation > m {
			m = p.TimeDilation
		}
	}
	return m
}

// BlackHoleRadius is zero when there is no black hole.
func (s Snapshot) BlackHoleRadius() float64 {
	if s.BlackHole == nil {
		return 0
	}
	return s.BlackHole.Radius
}

type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Result struct {
	Ticks   int64
	Final   Snapshot
	Metrics map[string]float64
	Errors  []error
}
