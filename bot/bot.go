package bot

import "cellarena/game"

// World is the part of game.World a bot needs
type World interface {
	Cells(playerID string) []game.Snapshot
	SpatialQuery(pt game.Vec2, radius float64) []game.Snapshot
	SetTarget(playerID string, target game.Vec2)
	Split(playerID string, target game.Vec2)
	Eject(playerID string, target game.Vec2)
	Respawn(playerID string) bool
	Width() float64
	Height() float64
}

// Driver feeds a Strategy from the world and applies its decisions
type Driver struct {
	ID       string
	Name     string
	Strategy Strategy
}

// NewDriver creates a bot driver
func NewDriver(id, name string, s Strategy) *Driver {
	return &Driver{ID: id, Name: name, Strategy: s}
}

// Step runs one decision. A bot with no cells respawns instead.
func (d *Driver) Step(w World) {
	cells := w.Cells(d.ID)
	if len(cells) == 0 {
		w.Respawn(d.ID)
		return
	}
	head := cells[0]
	dec := d.Strategy.Decide(Perception{
		PlayerID: d.ID,
		Head:     head,
		Visible:  w.SpatialQuery(head.Pos(), ViewDistance),
		Width:    w.Width(),
		Height:   w.Height(),
	})
	if dec.Move {
		w.SetTarget(d.ID, dec.Target)
	}
	if dec.Split {
		w.Split(d.ID, dec.Target)
	}
	if dec.Eject {
		w.Eject(d.ID, dec.Target)
	}
}
