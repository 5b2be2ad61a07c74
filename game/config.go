package game

import (
	"math/rand"
	"time"
)

const (
	TickRate     = 40 // simulation ticks per second
	TickDuration = time.Second / TickRate

	MaxCells     = 16
	MaxFragments = 6
	MaxLevel     = 100

	MinSplitMass = 35.0
	EjectLoss    = 18.0
	FoodMass     = 1.0
	FoodRadius   = 8.0
	VirusMass    = 100.0

	EatRatio      = 1.25
	VirusEatRatio = 1.1
	MergeCooldown = 30 * time.Second

	VelocityDecay    = 0.9
	EjectFriction    = 0.9
	SplitImpulse     = 25.0
	EjectImpulse     = 30.0
	FragmentImpulse  = 20.0
	NeighborPadding  = 100.0
	SpatialCellSize  = 100.0
	ViewMargin       = 1.2
	LevelUpCoins     = 100
	TimedBonusCoins  = 250
	TimedBonusPeriod = time.Hour
)

// XP awarded for discrete simulation events
const (
	XPFood    = 1.0
	XPEjected = 5.0
	XPVirus   = 50.0
)

// Config holds the tunables of one World
type Config struct {
	Width, Height float64

	FoodTarget     int
	VirusTarget    int
	FoodSpawnBatch int // max food spawned per tick while topping up

	BaseSpeed     float64
	SpeedExponent float64
	SpeedScale    float64
	MinSpeed      float64

	// Now is the clock used for merge windows and bonus cooldowns
	Now func() time.Time
	// Rand drives spawn positions and colors
	Rand *rand.Rand
	// Events receives simulation events; may be nil
	Events EventSink
}

// DefaultConfig returns the arena tuning used by the server
func DefaultConfig() Config {
	return Config{
		Width:          5000,
		Height:         5000,
		FoodTarget:     1000,
		VirusTarget:    20,
		FoodSpawnBatch: 50,
		BaseSpeed:      25,
		SpeedExponent:  0.44,
		SpeedScale:     1,
		MinSpeed:       1.5,
	}
}

func (c *Config) fill() {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.FoodSpawnBatch <= 0 {
		c.FoodSpawnBatch = d.FoodSpawnBatch
	}
	if c.BaseSpeed <= 0 {
		c.BaseSpeed = d.BaseSpeed
	}
	if c.SpeedExponent <= 0 {
		c.SpeedExponent = d.SpeedExponent
	}
	if c.SpeedScale <= 0 {
		c.SpeedScale = d.SpeedScale
	}
	if c.MinSpeed <= 0 {
		c.MinSpeed = d.MinSpeed
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}
