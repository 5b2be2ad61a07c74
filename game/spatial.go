package game

import "math"

// SpatialGrid buckets entities into fixed-size cells for broad-phase queries.
//
// Each entity is bucketed by its center point only, never by its extent. A
// query returns every entity whose center lies in a grid cell overlapping the
// query's bounding box, so callers looking for large bodies must pad the query
// radius (see NeighborPadding). An entity with a radius larger than the
// padding can be missed at grid-cell boundaries. Since each entity occupies
// exactly one bucket, query results contain no duplicates.
type SpatialGrid struct {
	cellSize   float64
	cols, rows int
	cells      [][]EntityID
}

// NewSpatialGrid creates a grid covering a width x height world
func NewSpatialGrid(width, height float64) *SpatialGrid {
	return NewSpatialGridSize(width, height, SpatialCellSize)
}

// NewSpatialGridSize creates a grid with a custom cell size
func NewSpatialGridSize(width, height, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]EntityID, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) col(x float64) int {
	c := int(math.Floor(x / g.cellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) row(y float64) int {
	r := int(math.Floor(y / g.cellSize))
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// Insert buckets b into the single grid cell covering its center
func (g *SpatialGrid) Insert(b Body) {
	c := b.Center()
	idx := g.row(c.Y)*g.cols + g.col(c.X)
	g.cells[idx] = append(g.cells[idx], b.EntityID())
}

// QueryRadius returns the ids in all cells overlapping the bounding square of the circle
func (g *SpatialGrid) QueryRadius(p Vec2, radius float64) []EntityID {
	return g.QueryRectBuf(p.X-radius, p.Y-radius, p.X+radius, p.Y+radius, nil)
}

// QueryRadiusBuf appends results to buf, avoiding per-call allocation
func (g *SpatialGrid) QueryRadiusBuf(p Vec2, radius float64, buf []EntityID) []EntityID {
	return g.QueryRectBuf(p.X-radius, p.Y-radius, p.X+radius, p.Y+radius, buf)
}

// QueryRect returns the ids in all cells overlapping the rectangle
func (g *SpatialGrid) QueryRect(minX, minY, maxX, maxY float64) []EntityID {
	return g.QueryRectBuf(minX, minY, maxX, maxY, nil)
}

// QueryRectBuf appends the ids in all cells overlapping the rectangle to buf
func (g *SpatialGrid) QueryRectBuf(minX, minY, maxX, maxY float64, buf []EntityID) []EntityID {
	minCX, maxCX := g.col(minX), g.col(maxX)
	minCY, maxCY := g.row(minY), g.row(maxY)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}
