package game

import "math"

// SpatialCellSize is a few capture radii wide so a neighbourhood query touches
// at most 4 cells.
const SpatialCellSize = 80.0

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind EntityKind
	Idx  int // index into the corresponding id-ordered list
}

// SpatialGrid is a uniform grid for broad-phase proximity queries
type SpatialGrid struct {
	cols, rows int
	cells      [][]EntityRef
}

// NewSpatialGrid creates a grid covering a w×h map
func NewSpatialGrid(w, h float64) *SpatialGrid {
	cols := int(math.Ceil(w/SpatialCellSize)) + 1
	rows := int(math.Ceil(h/SpatialCellSize)) + 1
	return &SpatialGrid{
		cols:  cols,
		rows:  rows,
		cells: make([][]EntityRef, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) cellCoord(v float64, limit int) int {
	c := int(v / SpatialCellSize)
	if c < 0 {
		return 0
	}
	if c >= limit {
		return limit - 1
	}
	return c
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, y float64, ref EntityRef) {
	idx := g.cellCoord(y, g.rows)*g.cols + g.cellCoord(x, g.cols)
	g.cells[idx] = append(g.cells[idx], ref)
}

// QueryBuf appends all refs in cells overlapping the box around (x, y) to buf
func (g *SpatialGrid) QueryBuf(x, y, radius float64, buf []EntityRef) []EntityRef {
	minCX := g.cellCoord(x-radius, g.cols)
	maxCX := g.cellCoord(x+radius, g.cols)
	minCY := g.cellCoord(y-radius, g.rows)
	maxCY := g.cellCoord(y+radius, g.rows)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}

// Query returns all entity refs in cells that overlap the given bounding box
func (g *SpatialGrid) Query(x, y, radius float64) []EntityRef {
	return g.QueryBuf(x, y, radius, nil)
}
