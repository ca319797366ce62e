package spatial

import (
	"testing"

	"arena-server/motion"
)

func contains(keys []int, k int) bool {
	for _, v := range keys {
		if v == k {
			return true
		}
	}
	return false
}

func TestGridInsertAndQuery(t *testing.T) {
	grid := NewGrid[int](100)
	grid.Insert(1, motion.Point{X: 100, Y: 100})

	if !contains(grid.Query(motion.Point{X: 100, Y: 100}, 50), 1) {
		t.Error("expected to find entity at (100,100)")
	}
	if contains(grid.Query(motion.Point{X: 3000, Y: 3000}, 50), 1) {
		t.Error("should not find entity at (3000,3000)")
	}
}

func TestGridQueryIsCellSuperset(t *testing.T) {
	grid := NewGrid[int](100)
	// same cell as the center but 90 units away
	grid.Insert(1, motion.Point{X: 5, Y: 5})
	results := grid.Query(motion.Point{X: 95, Y: 95}, 1)
	if !contains(results, 1) {
		t.Error("query must return everything in the covered cells")
	}
	// two cells over is outside ceil(1/100) = 1 cell
	grid.Insert(2, motion.Point{X: 250, Y: 50})
	if contains(grid.Query(motion.Point{X: 50, Y: 50}, 1), 2) {
		t.Error("entity two cells away returned for a one-cell query")
	}
	if !contains(grid.Query(motion.Point{X: 50, Y: 50}, 101), 2) {
		t.Error("ceil(101/100) = 2 cells should reach the entity")
	}
}

func TestGridNegativeCoordinates(t *testing.T) {
	grid := NewGrid[int](100)
	if c := grid.CellOf(motion.Point{X: -1, Y: -150}); c != (Cell{X: -1, Y: -2}) {
		t.Errorf("floor division expected (-1,-2), got %+v", c)
	}
	grid.Insert(7, motion.Point{X: -10, Y: -10})
	if !contains(grid.Query(motion.Point{X: -20, Y: -20}, 5), 7) {
		t.Error("expected to find entity inserted at negative coords")
	}
	if contains(grid.Query(motion.Point{X: 150, Y: 150}, 5), 7) {
		t.Error("negative cell leaked into positive query")
	}
}

func TestGridRemove(t *testing.T) {
	grid := NewGrid[int](100)
	p := motion.Point{X: 500, Y: 500}
	grid.Insert(3, p)
	grid.Remove(3)
	if contains(grid.Query(p, 100), 3) {
		t.Error("removed entity returned by query")
	}
	if grid.Has(3) || grid.Len() != 0 {
		t.Error("removed entity still indexed")
	}
	grid.Remove(3) // unknown key is a no-op
}

func TestGridReinsertMoves(t *testing.T) {
	grid := NewGrid[int](100)
	grid.Insert(4, motion.Point{X: 50, Y: 50})
	grid.Insert(4, motion.Point{X: 1050, Y: 50})
	if contains(grid.Query(motion.Point{X: 50, Y: 50}, 10), 4) {
		t.Error("old cell still holds the entity")
	}
	if !contains(grid.Query(motion.Point{X: 1050, Y: 50}, 10), 4) {
		t.Error("entity missing from new cell")
	}
	if grid.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", grid.Len())
	}
}

func TestGridClear(t *testing.T) {
	grid := NewGrid[int](0)
	if grid.CellSize() != DefaultCellSize {
		t.Errorf("expected default cell size, got %v", grid.CellSize())
	}
	grid.Insert(1, motion.Point{X: 500, Y: 500})
	grid.Clear()
	if results := grid.Query(motion.Point{X: 500, Y: 500}, 100); len(results) != 0 {
		t.Errorf("expected 0 results after clear, got %d", len(results))
	}
}

func TestGridQueryBufAppends(t *testing.T) {
	grid := NewGrid[int](100)
	grid.Insert(1, motion.Point{X: 10, Y: 10})
	buf := []int{99}
	buf = grid.QueryBuf(motion.Point{X: 10, Y: 10}, 10, buf)
	if len(buf) != 2 || buf[0] != 99 || buf[1] != 1 {
		t.Errorf("unexpected buffer %v", buf)
	}
}
