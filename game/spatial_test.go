package game

import (
	"slices"
	"testing"
)

type point struct {
	id  EntityID
	pos Vec2
}

func (p point) EntityID() EntityID { return p.id }
func (p point) Center() Vec2       { return p.pos }

func TestSpatialGridInsertAndQuery(t *testing.T) {
	grid := NewSpatialGrid(4000, 4000)
	grid.Insert(point{1, Vec2{100, 100}})

	if !slices.Contains(grid.QueryRadius(Vec2{100, 100}, 50), 1) {
		t.Error("expected to find entity at (100,100)")
	}
	if slices.Contains(grid.QueryRadius(Vec2{3000, 3000}, 50), 1) {
		t.Error("should not find entity at (3000,3000)")
	}
}

func TestSpatialGridClear(t *testing.T) {
	grid := NewSpatialGrid(4000, 4000)
	grid.Insert(point{1, Vec2{500, 500}})
	grid.Clear()

	if n := len(grid.QueryRadius(Vec2{500, 500}, 100)); n != 0 {
		t.Errorf("expected 0 results after clear, got %d", n)
	}
}

func TestSpatialGridQueryRect(t *testing.T) {
	grid := NewSpatialGrid(4000, 4000)
	grid.Insert(point{1, Vec2{150, 150}})
	grid.Insert(point{2, Vec2{950, 950}})
	grid.Insert(point{3, Vec2{2500, 150}})

	got := grid.QueryRect(100, 100, 1000, 1000)
	slices.Sort(got)
	if !slices.Equal(got, []EntityID{1, 2}) {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestSpatialGridNoDuplicates(t *testing.T) {
	grid := NewSpatialGrid(4000, 4000)
	for i := 1; i <= 50; i++ {
		grid.Insert(point{EntityID(i), Vec2{float64(i * 20), float64(i * 20)}})
	}
	got := grid.QueryRadius(Vec2{500, 500}, 600)
	seen := make(map[EntityID]bool)
	for _, id := range got {
		if seen[id] {
			t.Fatalf("id %d returned twice", id)
		}
		seen[id] = true
	}
}

func TestSpatialGridCenterBucketing(t *testing.T) {
	grid := NewSpatialGrid(4000, 4000)
	// a large body centered at (250,250) is bucketed only in cell (2,2)
	grid.Insert(point{1, Vec2{250, 250}})

	if slices.Contains(grid.QueryRadius(Vec2{150, 150}, 10), 1) {
		t.Error("unpadded query away from the center bucket should miss the entity")
	}
	if !slices.Contains(grid.QueryRadius(Vec2{150, 150}, 10+NeighborPadding), 1) {
		t.Error("padded query should find the entity")
	}
}

func TestSpatialGridBoundaryClamp(t *testing.T) {
	grid := NewSpatialGrid(4000, 4000)
	grid.Insert(point{1, Vec2{-10, -10}})
	if !slices.Contains(grid.QueryRadius(Vec2{0, 0}, 50), 1) {
		t.Error("expected to find entity inserted at negative coords")
	}
	grid.Insert(point{2, Vec2{5000, 5000}})
	if !slices.Contains(grid.QueryRadius(Vec2{4000, 4000}, 50), 2) {
		t.Error("expected to find entity inserted beyond world edge")
	}
}
