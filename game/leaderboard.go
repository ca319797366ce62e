package game

import (
	"cmp"
	"slices"

	"arena-server/protocol"
)

// updateLeaderboard ranks living players by score, ties in join order. The
// result is a fresh slice so snapshots may keep references to older ones.
func (w *World) updateLeaderboard() {
	alive := make([]*Player, 0, len(w.order))
	for _, id := range w.order {
		if p := w.players[id]; p != nil && p.Alive {
			alive = append(alive, p)
		}
	}
	slices.SortStableFunc(alive, func(a, b *Player) int {
		return cmp.Compare(b.Score, a.Score)
	})
	n := min(len(alive), w.cfg.LeaderboardSize)
	board := make([]protocol.LeaderboardEntry, n)
	for i := range board {
		board[i] = alive[i].Entry()
	}
	w.leaderboard = board
}

// Leaderboard returns the ranking computed by the last tick
func (w *World) Leaderboard() []protocol.LeaderboardEntry {
	return w.leaderboard
}
