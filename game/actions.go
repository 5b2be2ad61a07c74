package game

import "math"

// split halves each cell with enough mass while the cell budget lasts
func (w *World) split(p *Player, target Vec2) {
	if p.cellBudget() <= 0 {
		return
	}
	current := append([]EntityID(nil), p.Cells...)
	for _, id := range current {
		if p.cellBudget() <= 0 {
			break
		}
		c := w.mustGet(id)
		if c.Mass() < MinSplitMass {
			continue
		}
		half := c.Mass() / 2
		c.SetMass(half)
		c.Target = target

		dir := target.Sub(c.Pos).Normalize()
		child := w.spawnCell(p, c.Pos.Add(dir.Scale(c.Radius())), half)
		child.Vel = dir.Scale(SplitImpulse)
		child.Target = target
		w.award(p, SplitXP(half))
	}
	w.rescore(p)
}

// eject fires EjectLoss mass out of each cell with enough mass
func (w *World) eject(p *Player, target Vec2) {
	for _, id := range p.Cells {
		c := w.mustGet(id)
		if c.Mass() < MinSplitMass {
			continue
		}
		c.AddMass(-EjectLoss)

		dir := target.Sub(c.Pos).Normalize()
		e := newMassive(w.entities.nextID(), KindEjected, Vec2{}, EjectLoss)
		e.Pos = c.Pos.Add(dir.Scale(c.Radius() + e.Radius()))
		e.Vel = dir.Scale(EjectImpulse)
		e.Friction = EjectFriction
		e.Color = c.Color
		w.clamp(e)
		w.addEntity(e)
	}
	w.rescore(p)
}

// fragment bursts c into equal pieces launched radially. Mass of c is
// conserved; with no budget left c keeps its mass.
func (w *World) fragment(p *Player, c *Entity) {
	pieces := p.cellBudget()
	if pieces > MaxFragments {
		pieces = MaxFragments
	}
	if pieces <= 0 {
		return
	}
	share := c.Mass() / float64(pieces+1)
	c.SetMass(share)
	for i := 0; i < pieces; i++ {
		angle := 2 * math.Pi * float64(i) / float64(pieces)
		dir := Vec2{math.Cos(angle), math.Sin(angle)}
		child := w.spawnCell(p, c.Pos.Add(dir.Scale(c.Radius())), share)
		child.Vel = dir.Scale(FragmentImpulse)
		child.Target = c.Target
	}
	w.rescore(p)
}
