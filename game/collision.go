package game

import (
	"slices"

	"arena-server/motion"
)

// CheckCollision reports whether p lies strictly within r of q
func CheckCollision(p, q motion.Point, r float64) bool {
	return motion.Dist2(p, q) < r*r
}

// reaches is the broad phase for head-to-body checks: no segment of other
// can be farther from its head than the body's maximal length.
func (w *World) reaches(head motion.Point, other *Player) bool {
	reach := float64(other.Len()-1)*w.cfg.maxLink() + w.cfg.BodyHitRadius
	return motion.Dist2(head, other.Head()) <= reach*reach
}

// checkCollisions resolves food, other bodies and self for p after it moved
func (w *World) checkCollisions(p *Player) {
	w.eatFood(p)
	if w.hitOtherBody(p) {
		return
	}
	w.hitSelf(p)
}

// eatFood consumes every food within EatRadius of the head. Candidates are
// visited in ID order so replacement spawns stay deterministic.
func (w *World) eatFood(p *Player) {
	head := p.Head()
	w.queryBuf = w.foodGrid.QueryBuf(head, w.cfg.EatRadius, w.queryBuf[:0])
	slices.Sort(w.queryBuf)
	for _, id := range w.queryBuf {
		f, ok := w.food[id]
		if !ok || !CheckCollision(head, f.Pos, w.cfg.EatRadius) {
			continue
		}
		w.removeFood(id)
		p.Score += f.Value
		p.Grow()
		w.spawnFood()
	}
}

// hitOtherBody kills p when its head touches another living body. Bodies
// are tested in join order and the first hit takes the kill.
func (w *World) hitOtherBody(p *Player) bool {
	head := p.Head()
	for _, id := range w.order {
		other := w.players[id]
		if other == nil || other == p || !other.Alive || other.Len() == 0 {
			continue
		}
		if !w.reaches(head, other) {
			continue
		}
		for _, seg := range other.Segments {
			if CheckCollision(head, seg, w.cfg.BodyHitRadius) {
				w.kill(p, other, CauseBody)
				return true
			}
		}
	}
	return false
}

// hitSelf skips the first SelfCollisionStart segments, which always trail
// close behind the head
func (w *World) hitSelf(p *Player) bool {
	head := p.Head()
	for i := w.cfg.SelfCollisionStart; i < p.Len(); i++ {
		if CheckCollision(head, p.Segments[i], w.cfg.SelfHitRadius) {
			w.kill(p, nil, CauseSelf)
			return true
		}
	}
	return false
}
