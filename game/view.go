package game

import (
	"slices"

	"arena-server/motion"
	"arena-server/protocol"
)

// Compress down-samples segs to at most limit points at an even stride.
// The head and the tail always survive.
func Compress(segs []motion.Point, limit int) []motion.Point {
	limit = max(limit, 2)
	n := len(segs)
	if n <= limit {
		return slices.Clone(segs)
	}
	out := make([]motion.Point, limit)
	for i := range out {
		out[i] = segs[motion.StrideIndex(i, n, limit)]
	}
	return out
}

// BuildView is the snapshot one viewer receives: food within ViewDistance,
// the viewer itself and living players within VisibilityRadius. It only
// reads the world and is safe to run for many viewers at once.
func BuildView(w *World, viewerID string, ts int64) (protocol.GameState, bool) {
	viewer, ok := w.players[viewerID]
	if !ok {
		return protocol.GameState{}, false
	}
	var center motion.Point
	if viewer.Len() > 0 {
		center = viewer.Head()
	}
	cfg := w.cfg

	ids := w.foodGrid.Query(center, cfg.ViewDistance)
	slices.Sort(ids)
	food := make([]protocol.FoodState, 0, len(ids))
	for _, id := range ids {
		f, ok := w.food[id]
		if ok && CheckCollision(f.Pos, center, cfg.ViewDistance) {
			food = append(food, f.ToState())
		}
	}

	players := []protocol.PlayerState{viewer.ToState(cfg.SelfSegmentCap)}
	vis2 := cfg.VisibilityRadius * cfg.VisibilityRadius
	for _, id := range w.order {
		p := w.players[id]
		if p == nil || p == viewer || !p.Alive || p.Len() == 0 {
			continue
		}
		if motion.Dist2(p.Head(), center) <= vis2 {
			players = append(players, p.ToState(cfg.OtherSegmentCap))
		}
	}

	return protocol.GameState{
		Players:         players,
		Food:            food,
		Leaderboard:     w.leaderboard,
		BoundaryRadius:  cfg.BoundaryRadius,
		ServerTimestamp: ts,
		Tick:            w.tick,
	}, true
}
