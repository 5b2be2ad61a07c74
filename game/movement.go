package game

import "math"

// cellSpeed is the top speed of a cell per tick; heavier cells are slower
func (w *World) cellSpeed(mass float64) float64 {
	if mass <= 0 {
		return w.cfg.MinSpeed
	}
	s := w.cfg.BaseSpeed * math.Pow(mass, -w.cfg.SpeedExponent) * w.cfg.SpeedScale
	return math.Max(s, w.cfg.MinSpeed)
}

// moveCell decays the impulse velocity, applies it, then steers toward the
// target without overshooting
func (w *World) moveCell(c *Entity) {
	c.Vel = c.Vel.Scale(VelocityDecay)
	c.Pos = c.Pos.Add(c.Vel)

	to := c.Target.Sub(c.Pos)
	dist := to.Len()
	if dist > 0 {
		step := math.Min(w.cellSpeed(c.Mass()), dist)
		c.Pos = c.Pos.Add(to.Scale(step / dist))
	}
	w.clamp(c)
}

func (w *World) moveEjected(e *Entity) {
	e.Pos = e.Pos.Add(e.Vel)
	e.Vel = e.Vel.Scale(e.Friction)
	w.clamp(e)
}

func (w *World) clamp(e *Entity) {
	e.Pos.X = Clamp(e.Pos.X, 0, w.cfg.Width)
	e.Pos.Y = Clamp(e.Pos.Y, 0, w.cfg.Height)
}

func (w *World) moveAll() {
	for _, e := range w.entities.all() {
		switch e.Kind {
		case KindCell:
			w.moveCell(e)
		case KindEjected:
			w.moveEjected(e)
		}
	}
}
