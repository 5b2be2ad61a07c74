package game

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type eventLog struct {
	events []Event
}

func (l *eventLog) Emit(e Event) { l.events = append(l.events, e) }

func (l *eventLog) count(k EventKind) int {
	n := 0
	for _, e := range l.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// newTestWorld builds an empty world with no food/virus spawning
func newTestWorld(t *testing.T) (*World, *fakeClock, *eventLog) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	log := &eventLog{}
	w := NewWorld(Config{
		Width:  4000,
		Height: 4000,
		Now:    clk.Now,
		Rand:   rand.New(rand.NewSource(1)),
		Events: log,
	})
	return w, clk, log
}

// joinAt registers a player and moves its starter cell
func joinAt(t *testing.T, w *World, id string, pos Vec2, mass float64) *Entity {
	t.Helper()
	w.Join(id, id, JoinOptions{})
	p := w.players[id]
	if p == nil || len(p.Cells) != 1 {
		t.Fatalf("join %s: expected one starter cell", id)
	}
	c := w.mustGet(p.Cells[0])
	c.Pos = pos
	c.Target = pos
	c.SetMass(mass)
	w.rescore(p)
	return c
}

func addVirus(w *World, pos Vec2) *Entity {
	v := newMassive(w.entities.nextID(), KindVirus, pos, VirusMass)
	w.addEntity(v)
	return v
}

func addFood(w *World, pos Vec2) *Entity {
	f := newFood(w.entities.nextID(), pos, "#fff")
	w.addEntity(f)
	return f
}

func totalMass(w *World, playerID string) float64 {
	sum := 0.0
	for _, id := range w.players[playerID].Cells {
		sum += w.mustGet(id).Mass()
	}
	return sum
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// checkInvariants verifies arena/player consistency after any operation
func checkInvariants(t *testing.T, w *World) {
	t.Helper()
	owned := 0
	for _, p := range w.players {
		if len(p.Cells) > MaxCells {
			t.Errorf("player %s has %d cells, cap is %d", p.ID, len(p.Cells), MaxCells)
		}
		score := 0
		for _, id := range p.Cells {
			c, ok := w.entities.get(id)
			if !ok {
				t.Fatalf("player %s references missing cell %d", p.ID, id)
			}
			if c.Owner != p.ID {
				t.Errorf("cell %d owner %s, listed under %s", id, c.Owner, p.ID)
			}
			score += int(math.Floor(c.Mass()))
		}
		if score != p.Score {
			t.Errorf("player %s score %d, want %d", p.ID, p.Score, score)
		}
		owned += len(p.Cells)
	}
	cells := 0
	for _, e := range w.entities.all() {
		if e.Kind == KindCell {
			cells++
		}
		if e.Kind != KindFood && !approx(e.Radius(), MassRadius(e.Mass())) {
			t.Errorf("entity %d radius %f does not match mass %f", e.ID, e.Radius(), e.Mass())
		}
	}
	if cells != owned {
		t.Errorf("arena holds %d cells, players own %d", cells, owned)
	}
}
