package game

import (
	"math"
	"time"
)

// EntityID is a stable arena key, never reused within a World
type EntityID uint64

// Kind tags the closed set of simulated objects
type Kind uint8

const (
	KindCell Kind = iota
	KindFood
	KindVirus
	KindEjected
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindFood:
		return "food"
	case KindVirus:
		return "virus"
	case KindEjected:
		return "ejected"
	}
	return "unknown"
}

// Body is what the spatial index needs to know about an entity
type Body interface {
	EntityID() EntityID
	Center() Vec2
}

// Entity is one simulated object. Which fields are meaningful depends on Kind:
// cells use Owner, Target, CreatedAt and Skin; ejected mass uses Friction;
// food has no mass and a fixed radius.
type Entity struct {
	ID    EntityID
	Kind  Kind
	Pos   Vec2
	Vel   Vec2
	Color string

	Owner     string
	Target    Vec2
	CreatedAt time.Time
	Skin      string
	Friction  float64

	mass   float64
	radius float64
}

// MassRadius converts mass to radius
func MassRadius(mass float64) float64 {
	return math.Sqrt(mass * 100 / math.Pi)
}

func newMassive(id EntityID, kind Kind, pos Vec2, mass float64) *Entity {
	e := &Entity{ID: id, Kind: kind, Pos: pos}
	e.SetMass(mass)
	return e
}

func newFood(id EntityID, pos Vec2, color string) *Entity {
	return &Entity{ID: id, Kind: KindFood, Pos: pos, Color: color, radius: FoodRadius}
}

func (e *Entity) EntityID() EntityID { return e.ID }
func (e *Entity) Center() Vec2       { return e.Pos }
func (e *Entity) Mass() float64      { return e.mass }
func (e *Entity) Radius() float64    { return e.radius }

// SetMass sets mass and recomputes the radius. Food ignores it.
func (e *Entity) SetMass(m float64) {
	if e.Kind == KindFood {
		return
	}
	if m < 0 {
		m = 0
	}
	e.mass = m
	e.radius = MassRadius(m)
}

// AddMass adds delta to mass (see SetMass)
func (e *Entity) AddMass(delta float64) {
	e.SetMass(e.mass + delta)
}

// mergeEligible reports whether the cell is old enough to recombine
func (e *Entity) mergeEligible(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= MergeCooldown
}

// Snapshot is a read-only copy of an entity handed to viewers and strategies
type Snapshot struct {
	ID     EntityID `msgpack:"id" json:"id"`
	Kind   Kind     `msgpack:"k" json:"k"`
	X      float64  `msgpack:"x" json:"x"`
	Y      float64  `msgpack:"y" json:"y"`
	Radius float64  `msgpack:"r" json:"r"`
	Mass   float64  `msgpack:"m,omitempty" json:"m,omitempty"`
	Color  string   `msgpack:"c,omitempty" json:"c,omitempty"`
	Owner  string   `msgpack:"o,omitempty" json:"o,omitempty"`
	Skin   string   `msgpack:"s,omitempty" json:"s,omitempty"`
}

// Snapshot copies the entity
func (e *Entity) Snapshot() Snapshot {
	return Snapshot{
		ID:     e.ID,
		Kind:   e.Kind,
		X:      round1(e.Pos.X),
		Y:      round1(e.Pos.Y),
		Radius: round1(e.radius),
		Mass:   e.mass,
		Color:  e.Color,
		Owner:  e.Owner,
		Skin:   e.Skin,
	}
}

func (s Snapshot) Pos() Vec2 { return Vec2{s.X, s.Y} }

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
