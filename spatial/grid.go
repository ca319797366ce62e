// Package spatial provides a uniform-cell hash grid for broad-phase
// proximity queries.
package spatial

import (
	"math"

	"arena-server/motion"
)

// DefaultCellSize is a cell edge that keeps eat and view queries within a
// handful of cells
const DefaultCellSize = 100.0

// Cell is the integer coordinate of a grid cell
type Cell struct {
	X, Y int
}

// Grid indexes keys by the cell containing their position. Cells are
// created on demand and never compacted. Not safe for concurrent writers.
type Grid[K comparable] struct {
	cellSize float64
	cells    map[Cell]map[K]struct{}
	where    map[K]Cell
}

// NewGrid creates an empty grid. A non-positive cellSize falls back to
// DefaultCellSize.
func NewGrid[K comparable](cellSize float64) *Grid[K] {
	if cellSize <= 0 || !motion.Finite(cellSize) {
		cellSize = DefaultCellSize
	}
	return &Grid[K]{
		cellSize: cellSize,
		cells:    make(map[Cell]map[K]struct{}),
		where:    make(map[K]Cell),
	}
}

// CellSize returns the cell edge length in world units
func (g *Grid[K]) CellSize() float64 {
	return g.cellSize
}

// CellOf returns the cell containing p
func (g *Grid[K]) CellOf(p motion.Point) Cell {
	return Cell{
		X: int(math.Floor(p.X / g.cellSize)),
		Y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// Insert adds k at p. Inserting a key that is already present moves it.
func (g *Grid[K]) Insert(k K, p motion.Point) {
	if _, ok := g.where[k]; ok {
		g.Remove(k)
	}
	c := g.CellOf(p)
	bucket, ok := g.cells[c]
	if !ok {
		bucket = make(map[K]struct{})
		g.cells[c] = bucket
	}
	bucket[k] = struct{}{}
	g.where[k] = c
}

// Remove drops k from the grid. Unknown keys are ignored.
func (g *Grid[K]) Remove(k K) {
	c, ok := g.where[k]
	if !ok {
		return
	}
	delete(g.where, k)
	if bucket, ok := g.cells[c]; ok {
		delete(bucket, k)
	}
}

// Has reports whether k is indexed
func (g *Grid[K]) Has(k K) bool {
	_, ok := g.where[k]
	return ok
}

// Len returns the number of indexed keys
func (g *Grid[K]) Len() int {
	return len(g.where)
}

// Clear removes every key (keeps allocated cells)
func (g *Grid[K]) Clear() {
	for _, bucket := range g.cells {
		clear(bucket)
	}
	clear(g.where)
}

// Query returns every key whose cell lies within ceil(radius/cellSize)
// cells of center's cell. The result is a superset of the keys within
// radius: callers re-check exact distance.
func (g *Grid[K]) Query(center motion.Point, radius float64) []K {
	return g.QueryBuf(center, radius, nil)
}

// QueryBuf appends results to buf and returns the extended slice, avoiding per-call allocation
func (g *Grid[K]) QueryBuf(center motion.Point, radius float64, buf []K) []K {
	if radius < 0 || !motion.Finite(radius) || !motion.Finite(center.X) || !motion.Finite(center.Y) {
		return buf
	}
	span := int(math.Ceil(radius / g.cellSize))
	c := g.CellOf(center)
	for cy := c.Y - span; cy <= c.Y+span; cy++ {
		for cx := c.X - span; cx <= c.X+span; cx++ {
			for k := range g.cells[Cell{X: cx, Y: cy}] {
				buf = append(buf, k)
			}
		}
	}
	return buf
}
