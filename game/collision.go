package game

import (
	"math"
	"slices"
)

// resolveCollisions scans each live cell's neighborhood and applies
// consumption, eating, pushing and merging. Cells are visited in id order and
// candidates sorted by id, so the outcome does not depend on arena layout.
func (w *World) resolveCollisions() {
	cells := make([]EntityID, 0, len(w.players)*2)
	for _, e := range w.entities.all() {
		if e.Kind == KindCell {
			cells = append(cells, e.ID)
		}
	}
	slices.Sort(cells)

	for _, id := range cells {
		if w.isRemoved(id) {
			continue
		}
		c := w.mustGet(id)
		w.idBuf = w.grid.QueryRadiusBuf(c.Pos, c.Radius()+NeighborPadding, w.idBuf[:0])
		slices.Sort(w.idBuf)

		for _, nid := range w.idBuf {
			if nid == id || w.isRemoved(nid) {
				continue
			}
			w.interact(c, w.mustGet(nid))
			if w.isRemoved(id) {
				break
			}
		}
	}
}

func (w *World) interact(c, n *Entity) {
	dist := Distance(c.Pos, n.Pos)
	switch n.Kind {
	case KindFood:
		if dist < c.Radius() {
			w.removeEntity(n.ID)
			w.feed(c, FoodMass, XPFood)
		}
	case KindEjected:
		if dist < c.Radius() {
			w.removeEntity(n.ID)
			w.feed(c, n.Mass(), XPEjected)
		}
	case KindVirus:
		if c.Mass() > n.Mass()*VirusEatRatio && dist < c.Radius() {
			w.removeEntity(n.ID)
			p := w.mustOwner(c)
			w.award(p, XPVirus)
			w.emit(Event{Kind: EvtVirusPop, PlayerID: p.ID, Value: c.Mass()})
			w.fragment(p, c)
		}
	case KindCell:
		if n.Owner == c.Owner {
			w.resolveSiblings(c, n, dist)
			return
		}
		if c.Mass() > n.Mass()*EatRatio && dist < c.Radius()-n.Radius()*0.5 {
			w.eat(c, n)
		}
	}
}

func (w *World) feed(c *Entity, mass, xp float64) {
	c.AddMass(mass)
	p := w.mustOwner(c)
	w.award(p, xp)
	w.rescore(p)
}

// resolveSiblings pushes young siblings apart and merges old ones
func (w *World) resolveSiblings(a, b *Entity, dist float64) {
	now := w.cfg.Now()
	if !a.mergeEligible(now) || !b.mergeEligible(now) {
		overlap := a.Radius() + b.Radius() - dist
		if overlap <= 0 {
			return
		}
		normal := b.Pos.Sub(a.Pos).Normalize()
		a.Pos = a.Pos.Sub(normal.Scale(overlap / 2))
		b.Pos = b.Pos.Add(normal.Scale(overlap / 2))
		w.clamp(a)
		w.clamp(b)
		return
	}

	big, small := a, b
	if small.Mass() > big.Mass() || (small.Mass() == big.Mass() && small.ID < big.ID) {
		big, small = small, big
	}
	if dist < big.Radius()+small.Radius()*0.5 {
		big.AddMass(small.Mass())
		w.removeCell(small)
	}
}

// eat moves all of prey's mass into pred
func (w *World) eat(pred, prey *Entity) {
	hunter := w.mustOwner(pred)
	victim := w.mustOwner(prey)
	mass := prey.Mass()

	pred.AddMass(mass)
	w.removeCell(prey)
	w.award(hunter, EatXP(mass))
	w.rescore(hunter)

	w.emit(Event{Kind: EvtCellEaten, PlayerID: hunter.ID, OtherID: victim.ID, Value: mass})
	if !victim.Alive() {
		// Value is the mass of the last cell, i.e. the victim's final score
		w.emit(Event{Kind: EvtDeath, PlayerID: hunter.ID, OtherID: victim.ID, Value: math.Floor(mass)})
	}
}
