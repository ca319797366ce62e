package game

import (
	"math"

	"arena-server/motion"
	"arena-server/protocol"
)

// Food is a pellet that grows whoever eats it
type Food struct {
	ID    uint64
	Pos   motion.Point
	Color string
	Value int
}

// ToState converts to protocol state
func (f *Food) ToState() protocol.FoodState {
	return protocol.FoodState{ID: f.ID, X: f.Pos.X, Y: f.Pos.Y, Color: f.Color, Value: f.Value}
}

func (w *World) addFood(pos motion.Point) *Food {
	w.nextFood++
	f := &Food{
		ID:    w.nextFood,
		Pos:   pos,
		Color: Colors[w.rng.IntN(len(Colors))],
		Value: w.cfg.FoodValue,
	}
	w.food[f.ID] = f
	w.foodGrid.Insert(f.ID, pos)
	return f
}

// spawnFood places a food uniformly inside the arena, off the boundary
func (w *World) spawnFood() *Food {
	angle := w.rng.Float64() * 2 * math.Pi
	r := math.Sqrt(w.rng.Float64()) * (w.cfg.BoundaryRadius - w.cfg.FoodMargin)
	return w.addFood(motion.Point{X: math.Cos(angle) * r, Y: math.Sin(angle) * r})
}

// dropFood leaves a food near pos unless the world is at MaxFood
func (w *World) dropFood(pos motion.Point) *Food {
	if w.cfg.MaxFood > 0 && len(w.food) >= w.cfg.MaxFood {
		return nil
	}
	j := w.cfg.DropJitter
	return w.addFood(motion.Point{
		X: pos.X + (w.rng.Float64()-0.5)*j,
		Y: pos.Y + (w.rng.Float64()-0.5)*j,
	})
}

func (w *World) removeFood(id uint64) {
	delete(w.food, id)
	w.foodGrid.Remove(id)
}
