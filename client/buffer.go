package client

import (
	"sync"
	"time"

	"arena-server/motion"
	"arena-server/protocol"
)

// MaxFraction bounds how far past the newest snapshot remote players are
// extrapolated when a snapshot is late
const MaxFraction = 1.5

// SnapshotBuffer holds the two newest snapshots and the arrival time of the
// newer one. The network goroutine pushes while the frame loop reads.
type SnapshotBuffer struct {
	mu       sync.Mutex
	prev     *protocol.GameState
	cur      *protocol.GameState
	arrived  time.Time
	interval time.Duration
}

// NewSnapshotBuffer creates a buffer expecting a snapshot every interval
func NewSnapshotBuffer(interval time.Duration) *SnapshotBuffer {
	return &SnapshotBuffer{interval: interval}
}

// SetInterval updates the expected snapshot spacing
func (b *SnapshotBuffer) SetInterval(d time.Duration) {
	b.mu.Lock()
	b.interval = d
	b.mu.Unlock()
}

// Push makes gs the current snapshot and restarts the interpolation clock
func (b *SnapshotBuffer) Push(gs *protocol.GameState, now time.Time) {
	b.mu.Lock()
	b.prev, b.cur = b.cur, gs
	b.arrived = now
	b.mu.Unlock()
}

// Snapshot returns the previous and current snapshots with the
// interpolation fraction between them at now, all read under one lock so a
// concurrent Push cannot pair old snapshots with a new clock. Either
// snapshot may be nil.
func (b *SnapshotBuffer) Snapshot(now time.Time) (prev, cur *protocol.GameState, frac float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prev, b.cur, fraction(now.Sub(b.arrived), b.interval)
}

// Fraction is the interpolation position between prev and cur at now
func (b *SnapshotBuffer) Fraction(now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fraction(now.Sub(b.arrived), b.interval)
}

func fraction(elapsed, interval time.Duration) float64 {
	if interval <= 0 {
		return 1
	}
	return motion.Clamp(float64(elapsed)/float64(interval), 0, MaxFraction)
}

// Interpolate blends every player of cur except skipID from its pose in
// prev. Segments are matched by index; a player absent from prev is shown
// as it is in cur.
func Interpolate(prev, cur *protocol.GameState, frac float64, skipID string) []protocol.PlayerState {
	if cur == nil {
		return nil
	}
	before := make(map[string]*protocol.PlayerState)
	if prev != nil {
		for i := range prev.Players {
			before[prev.Players[i].ID] = &prev.Players[i]
		}
	}

	out := make([]protocol.PlayerState, 0, len(cur.Players))
	for _, p := range cur.Players {
		if p.ID == skipID {
			continue
		}
		st := p
		st.Segments = append([][2]float64(nil), p.Segments...)
		if old, ok := before[p.ID]; ok {
			for i := range st.Segments {
				if i >= len(old.Segments) {
					break
				}
				a := motion.Point{X: old.Segments[i][0], Y: old.Segments[i][1]}
				c := motion.Point{X: p.Segments[i][0], Y: p.Segments[i][1]}
				m := motion.Lerp(a, c, frac)
				st.Segments[i] = [2]float64{m.X, m.Y}
			}
			st.Angle = motion.LerpAngle(old.Angle, p.Angle, frac)
		}
		out = append(out, st)
	}
	return out
}
