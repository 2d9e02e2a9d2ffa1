package physics

import "github.com/san-kum/solsim/internal/vmath"

// Fixed shape constants of the model. Tunable quantities live in Params.
const (
	SunMassFactor       = 1000.0
	SunGlowFactor       = 1.5
	PlanetMassFactor    = 10.0
	BlackHoleMassFactor = 100.0
	EffectRadiusFactor  = 12.0

	MinSunClearance = 50.0 // planets never orbit closer than radius+50
	OrbitDecay      = 0.95 // per-tick offset decay without a black hole

	AbsorbRangeFactor = 1.2 // absorb inside radius*1.2
	EjectRangeFactor  = 0.7 // eject inside effectRadius*0.7
	EjectKickFactor   = 0.7
	EjectBoostMin     = 100
	EjectBoostMax     = 300
	EscapeMargin      = 100.0

	PlanetCollisionTicks = 20
	SunCollisionTicks    = 25
	FlashDecay           = 0.1
	MomentumTransfer     = -0.5

	SpiralRadius   = 80.0
	SpiralTurns    = 8.0 // in units of pi
	StretchGrowth  = 4.0
	AbsorbBaseStep = 0.025
	AbsorbAccel    = 0.02

	SunAbsorbMassFactor   = 2.0
	SunAbsorbRadiusFactor = 1.5
)

// Params are the scaled-for-visualization constants of the gravity model.
type Params struct {
	G              float64 `yaml:"g"`
	LightSpeed     float64 `yaml:"light_speed"`
	HorizonFactor  float64 `yaml:"event_horizon_factor"`
	OrbitConstant  float64 `yaml:"orbit_constant"`
	SunForceScale  float64 `yaml:"sun_force_scale"`
	PairForceScale float64 `yaml:"pair_force_scale"`
	SunNudgeScale  float64 `yaml:"sun_nudge_scale"`
	PullStrength   float64 `yaml:"pull_strength"`
	PullScale      float64 `yaml:"pull_scale"`
	MaxPullForce   float64 `yaml:"max_pull_force"`
}

func DefaultParams() Params {
	return Params{
		G:              0.1,
		LightSpeed:     30,
		HorizonFactor:  2.0,
		OrbitConstant:  1000,
		SunForceScale:  0.00001,
		PairForceScale: 0.0001,
		SunNudgeScale:  0.0001,
		PullStrength:   0.5,
		PullScale:      0.01,
		MaxPullForce:   2.0,
	}
}

// Bounds is the rectangle bodies are simulated in. Planets orbit its center.
type Bounds struct {
	Left, Top, Right, Bottom float64
}

func (b Bounds) Center() vmath.Vec2 {
	return vmath.V(b.Left+(b.Right-b.Left)/2, b.Top+(b.Bottom-b.Top)/2)
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Outside reports whether p lies more than margin units beyond any edge.
func (b Bounds) Outside(p vmath.Vec2, margin float64) bool {
	return p.X < b.Left-margin || p.X > b.Right+margin || p.Y < b.Top-margin || p.Y > b.Bottom+margin
}
