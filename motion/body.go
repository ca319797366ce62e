// Package motion holds the heading filter and movement integration shared by
// the authoritative simulation and the client-side predictor.
package motion

// Rules are the tunables of the movement integrator
type Rules struct {
	TurnFactor float64 // fraction of the angular error corrected per tick
	BaseSpeed  float64 // world units per tick
	BoostSpeed float64 // world units per tick while boosting
}

// Speed returns the per-tick speed for the given boost state
func (r Rules) Speed(boosting bool) float64 {
	if boosting {
		return r.BoostSpeed
	}
	return r.BaseSpeed
}

// Body is the movable part of a creature: a trail of head positions.
// Segments[0] is the head.
type Body struct {
	Segments    []Point
	Angle       float64
	TargetAngle float64
	Boosting    bool
}

// NewBody lays out count segments trailing behind origin, opposite to angle
func NewBody(origin Point, angle float64, count int, spacing float64) Body {
	if count < 1 {
		count = 1
	}
	segs := make([]Point, count)
	for i := range segs {
		segs[i] = Project(origin, angle, -float64(i)*spacing)
	}
	return Body{Segments: segs, Angle: angle, TargetAngle: angle}
}

// Head returns the head position
func (b Body) Head() Point {
	return b.Segments[0]
}

// Tail returns the last segment
func (b Body) Tail() Point {
	return b.Segments[len(b.Segments)-1]
}

// Len returns the segment count
func (b Body) Len() int {
	return len(b.Segments)
}

// StrideIndex is the source index of sample i when n points are thinned to
// samples points. The first and last points are always kept.
func StrideIndex(i, n, samples int) int {
	return i * (n - 1) / (samples - 1)
}

// Push makes head the new first segment and drops the tail, keeping the count
func (b *Body) Push(head Point) {
	if len(b.Segments) == 0 {
		b.Segments = append(b.Segments, head)
		return
	}
	copy(b.Segments[1:], b.Segments[:len(b.Segments)-1])
	b.Segments[0] = head
}

// Grow appends a copy of the tail; later ticks pull it apart
func (b *Body) Grow() {
	b.Segments = append(b.Segments, b.Tail())
}

// PopTail removes and returns the last segment. It refuses to empty the body.
func (b *Body) PopTail() (Point, bool) {
	if len(b.Segments) <= 1 {
		return Point{}, false
	}
	tail := b.Tail()
	b.Segments = b.Segments[:len(b.Segments)-1]
	return tail, true
}

// Clone returns a deep copy of b
func (b Body) Clone() Body {
	c := b
	c.Segments = append([]Point(nil), b.Segments...)
	return c
}

// Steer moves angle toward target by factor of the signed shortest
// difference. A zero difference leaves angle untouched.
func Steer(angle, target, factor float64) float64 {
	diff := NormalizeAngle(target - angle)
	if diff == 0 {
		return angle
	}
	return NormalizeAngle(angle + diff*factor)
}

// Step runs the heading filter and speed selection on b and returns the
// proposed new head. beforeMove, when set, runs after speed selection and
// before the head is projected; the server uses it for the boost cost.
// Step does not shift the segments: call Push with the returned head.
func Step(b *Body, r Rules, beforeMove func(b *Body)) Point {
	b.Angle = Steer(b.Angle, b.TargetAngle, r.TurnFactor)
	speed := r.Speed(b.Boosting)
	if beforeMove != nil {
		beforeMove(b)
	}
	return Project(b.Head(), b.Angle, speed)
}

// Advance is Step followed by Push, with no extra rules. Clients predict
// with it.
func Advance(b *Body, r Rules) Point {
	head := Step(b, r, nil)
	b.Push(head)
	return head
}
