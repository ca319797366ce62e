package client

import (
	"time"

	"arena-server/motion"
	"arena-server/protocol"
)

// Reconciliation blend factors per frame
const (
	HeadBlend = 0.3
	BodyBlend = 0.1
)

// maxCatchUp caps the fixed steps run for one frame; a longer stall drops
// the remainder instead of fast-forwarding
const maxCatchUp = 5

// Predictor runs the local player ahead of the server with the same
// movement rules. It knows nothing of food, collisions or boost cost.
type Predictor struct {
	rules  motion.Rules
	step   time.Duration
	body   motion.Body
	acc    time.Duration
	active bool
}

// NewPredictor creates an idle predictor stepping at tickRate
func NewPredictor(rules motion.Rules, tickRate int) *Predictor {
	p := &Predictor{rules: rules}
	p.SetTickRate(tickRate)
	return p
}

// SetTickRate sets the fixed step to match the server simulation
func (p *Predictor) SetTickRate(tickRate int) {
	if tickRate <= 0 {
		tickRate = 60
	}
	p.step = time.Second / time.Duration(tickRate)
}

// Seed replaces the predicted body with an authoritative record
func (p *Predictor) Seed(st protocol.PlayerState) {
	segs := fullTrail(st)
	if len(segs) == 0 {
		p.Reset()
		return
	}
	p.body = motion.Body{
		Segments:    segs,
		Angle:       st.Angle,
		TargetAngle: st.Angle,
		Boosting:    st.Boosting,
	}
	p.acc = 0
	p.active = true
}

// Reset discards the prediction
func (p *Predictor) Reset() {
	p.body = motion.Body{}
	p.acc = 0
	p.active = false
}

// Active reports whether a body is being predicted
func (p *Predictor) Active() bool {
	return p.active
}

// SetInput steers the predicted body
func (p *Predictor) SetInput(angle float64, boosting bool) {
	if motion.Finite(angle) {
		p.body.TargetAngle = motion.NormalizeAngle(angle)
	}
	p.body.Boosting = boosting
}

// Advance accumulates dt and runs whole simulation steps. It returns the
// number of steps taken.
func (p *Predictor) Advance(dt time.Duration) int {
	if !p.active || dt <= 0 {
		return 0
	}
	p.acc += dt
	n := 0
	for p.acc >= p.step && n < maxCatchUp {
		motion.Advance(&p.body, p.rules)
		p.acc -= p.step
		n++
	}
	if n == maxCatchUp {
		p.acc = 0
	}
	return n
}

// Reconcile pulls the prediction toward the authoritative record: the head
// by HeadBlend, the rest by BodyBlend, the heading along the shortest arc.
// The predicted length follows the authoritative one, so a thinned record
// is blended against its rebuilt full trail.
func (p *Predictor) Reconcile(auth protocol.PlayerState) {
	if !p.active {
		return
	}
	target := fullTrail(auth)
	if len(target) == 0 {
		return
	}
	segs := p.body.Segments
	switch {
	case len(segs) > len(target):
		segs = segs[:len(target)]
	case len(segs) < len(target):
		segs = append(segs, target[len(segs):]...)
	}
	for i := range segs {
		blend := BodyBlend
		if i == 0 {
			blend = HeadBlend
		}
		segs[i] = motion.Lerp(segs[i], target[i], blend)
	}
	p.body.Segments = segs
	p.body.Angle = motion.LerpAngle(p.body.Angle, auth.Angle, HeadBlend)
}

// fullTrail returns all st.Length points of a body the server thinned with
// motion.StrideIndex. Points between two samples are placed on the line
// joining them.
func fullTrail(st protocol.PlayerState) []motion.Point {
	wire := protocol.ToPoints(st.Segments)
	m, n := len(wire), st.Length
	if n <= m || m < 2 {
		return wire
	}
	out := make([]motion.Point, n)
	k := 0
	for j := range out {
		for k < m-2 && motion.StrideIndex(k+1, n, m) <= j {
			k++
		}
		lo, hi := motion.StrideIndex(k, n, m), motion.StrideIndex(k+1, n, m)
		t := 0.0
		if hi > lo {
			t = float64(j-lo) / float64(hi-lo)
		}
		out[j] = motion.Lerp(wire[k], wire[k+1], t)
	}
	return out
}

// Body returns a copy of the predicted body
func (p *Predictor) Body() motion.Body {
	return p.body.Clone()
}
