package game

import "testing"

func TestSplitConservesMass(t *testing.T) {
	w, _, _ := newTestWorld(t)
	joinAt(t, w, "p1", Vec2{2000, 2000}, 500)
	w.Split("p1", Vec2{2500, 2000})

	p := w.players["p1"]
	if len(p.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(p.Cells))
	}
	for _, id := range p.Cells {
		if m := w.mustGet(id).Mass(); m != 250 {
			t.Errorf("expected half mass 250, got %f", m)
		}
	}
	child := w.mustGet(p.Cells[1])
	if child.Pos.X <= 2000 || child.Vel.X <= 0 {
		t.Error("child should be placed and launched toward the target")
	}
	if s, _ := w.PlayerStats("p1"); s.XP != SplitXP(250) || s.Score != 500 {
		t.Errorf("unexpected stats after split %+v", s)
	}
	checkInvariants(t, w)
}

func TestSplitBelowMinimumIsNoop(t *testing.T) {
	w, _, _ := newTestWorld(t)
	joinAt(t, w, "p1", Vec2{2000, 2000}, MinSplitMass-0.5)
	w.Split("p1", Vec2{2500, 2000})
	if len(w.players["p1"].Cells) != 1 {
		t.Error("cells below the minimum should not split")
	}
}

func TestSplitNeverExceedsCap(t *testing.T) {
	w, _, _ := newTestWorld(t)
	joinAt(t, w, "p1", Vec2{2000, 2000}, 100000)
	before := totalMass(w, "p1")
	for i := 0; i < 10; i++ {
		w.Split("p1", Vec2{3000, 3000})
		if n := len(w.players["p1"].Cells); n > MaxCells {
			t.Fatalf("split %d: %d cells exceeds cap", i, n)
		}
		if !approx(totalMass(w, "p1"), before) {
			t.Fatalf("split %d: mass %f, want %f", i, totalMass(w, "p1"), before)
		}
	}
	if n := len(w.players["p1"].Cells); n != MaxCells {
		t.Errorf("expected to reach %d cells, got %d", MaxCells, n)
	}
	checkInvariants(t, w)
}

func TestSplitPartialBudget(t *testing.T) {
	w, _, _ := newTestWorld(t)
	joinAt(t, w, "p1", Vec2{2000, 2000}, 8000)
	for i := 0; i < 3; i++ {
		w.Split("p1", Vec2{3000, 3000})
	}
	p := w.players["p1"]
	// 8 cells of 1000; shrink three so only five can split
	for _, id := range p.Cells[:3] {
		w.mustGet(id).SetMass(10)
	}
	w.rescore(p)
	w.Split("p1", Vec2{3000, 3000})
	if n := len(p.Cells); n != 13 {
		t.Fatalf("expected 13 cells, got %d", n)
	}

	before := make(map[EntityID]float64, len(p.Cells))
	for _, id := range p.Cells {
		before[id] = w.mustGet(id).Mass()
	}
	w.Split("p1", Vec2{3000, 3000})
	if n := len(p.Cells); n != MaxCells {
		t.Fatalf("expected %d cells, got %d", MaxCells, n)
	}
	halved := 0
	for id, m := range before {
		if w.mustGet(id).Mass() != m {
			halved++
		}
	}
	if halved != 3 {
		t.Errorf("only the remaining budget of 3 cells should split, %d did", halved)
	}

	w.Split("p1", Vec2{3000, 3000})
	if n := len(p.Cells); n != MaxCells {
		t.Errorf("split at the cap must be a no-op, got %d cells", n)
	}
	checkInvariants(t, w)
}

func TestEjectLosesMass(t *testing.T) {
	w, _, _ := newTestWorld(t)
	c := joinAt(t, w, "p1", Vec2{2000, 2000}, 100)
	w.Eject("p1", Vec2{2000, 1000})

	if !approx(c.Mass(), 100-EjectLoss) {
		t.Errorf("expected mass %f, got %f", 100-EjectLoss, c.Mass())
	}
	if w.Count(KindEjected) != 1 {
		t.Fatalf("expected one projectile, got %d", w.Count(KindEjected))
	}
	var proj *Entity
	for _, e := range w.entities.all() {
		if e.Kind == KindEjected {
			proj = e
		}
	}
	if proj.Vel.Y >= 0 || proj.Friction != EjectFriction || proj.Mass() != EjectLoss {
		t.Errorf("unexpected projectile %+v", proj)
	}

	start := proj.Vel.Len()
	w.Tick()
	if proj.Vel.Len() >= start {
		t.Error("projectile velocity should decay")
	}
	if s, _ := w.PlayerStats("p1"); s.Score != 82 {
		t.Errorf("expected score 82, got %d", s.Score)
	}
}

func TestEjectBelowMinimumIsNoop(t *testing.T) {
	w, _, _ := newTestWorld(t)
	c := joinAt(t, w, "p1", Vec2{2000, 2000}, 20)
	w.Eject("p1", Vec2{2000, 1000})
	if c.Mass() != 20 || w.Count(KindEjected) != 0 {
		t.Error("eject below minimum mass should be a no-op")
	}
}
