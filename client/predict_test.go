package client

import (
	"math"
	"testing"
	"time"

	"arena-server/game"
	"arena-server/motion"
	"arena-server/protocol"
)

var testRules = motion.Rules{TurnFactor: 0.1, BaseSpeed: 3, BoostSpeed: 6}

func straight(head motion.Point, n int) protocol.PlayerState {
	body := motion.NewBody(head, 0, n, 15)
	return protocol.PlayerState{ID: "me", Segments: protocol.FromPoints(body.Segments), Length: n, Alive: true}
}

func TestPredictorFixedSteps(t *testing.T) {
	p := NewPredictor(testRules, 60)
	if p.Advance(time.Second) != 0 {
		t.Fatal("idle predictor should not step")
	}
	p.Seed(straight(motion.Point{}, 10))

	if n := p.Advance(10 * time.Millisecond); n != 0 {
		t.Errorf("expected no step before a full tick, got %d", n)
	}
	if n := p.Advance(40 * time.Millisecond); n != 3 {
		t.Errorf("expected 3 steps for 50ms, got %d", n)
	}
	body := p.Body()
	if math.Abs(body.Head().X-9) > 1e-9 || body.Len() != 10 {
		t.Errorf("unexpected body head %v len %d", body.Head(), body.Len())
	}

	if n := p.Advance(time.Second); n != maxCatchUp {
		t.Errorf("expected catch-up cap %d, got %d", maxCatchUp, n)
	}
	if p.acc != 0 {
		t.Error("expected stalled time to be dropped")
	}
}

func TestPredictorBoostAndSteer(t *testing.T) {
	p := NewPredictor(testRules, 60)
	p.Seed(straight(motion.Point{}, 5))
	p.SetInput(math.Pi/2, true)
	p.Advance(time.Second / 60)

	body := p.Body()
	if math.Abs(body.Angle-math.Pi/20) > 1e-9 {
		t.Errorf("expected heading pi/20, got %v", body.Angle)
	}
	if d := body.Head().Len(); math.Abs(d-6) > 1e-9 {
		t.Errorf("expected boost step of 6, got %v", d)
	}
}

func TestReconcileBlends(t *testing.T) {
	p := NewPredictor(testRules, 60)
	p.Seed(straight(motion.Point{}, 3))

	auth := straight(motion.Point{X: 10}, 5)
	auth.Angle = 1
	p.Reconcile(auth)

	body := p.Body()
	if body.Len() != 5 {
		t.Fatalf("expected length to follow server, got %d", body.Len())
	}
	if math.Abs(body.Head().X-10*HeadBlend) > 1e-9 {
		t.Errorf("head should blend by %v, got %v", HeadBlend, body.Head())
	}
	// segment 1 was at -15, target -5
	if math.Abs(body.Segments[1].X-(-15+10*BodyBlend)) > 1e-9 {
		t.Errorf("body should blend by %v, got %v", BodyBlend, body.Segments[1])
	}
	if math.Abs(body.Angle-HeadBlend) > 1e-9 {
		t.Errorf("expected heading %v, got %v", HeadBlend, body.Angle)
	}

	p.Reconcile(straight(motion.Point{}, 2))
	if p.Body().Len() != 2 {
		t.Errorf("expected shrink to 2, got %d", p.Body().Len())
	}
}

func TestReconcileConverges(t *testing.T) {
	p := NewPredictor(testRules, 60)
	p.Seed(straight(motion.Point{X: 50}, 4))
	auth := straight(motion.Point{}, 4)
	for i := 0; i < 200; i++ {
		p.Reconcile(auth)
	}
	if motion.Distance(p.Body().Segments[3], motion.Point{X: -45}) > 1e-6 {
		t.Errorf("prediction did not converge: %v", p.Body().Segments)
	}
}

func TestPredictorReset(t *testing.T) {
	p := NewPredictor(testRules, 60)
	p.Seed(straight(motion.Point{}, 3))
	p.Reset()
	if p.Active() {
		t.Error("expected inactive after reset")
	}
	p.Reconcile(straight(motion.Point{}, 3))
	if p.Active() || p.Body().Len() != 0 {
		t.Error("reconcile must not revive a reset predictor")
	}
	p.Seed(protocol.PlayerState{})
	if p.Active() {
		t.Error("empty record should not seed")
	}
}

// thinned is a straight body of n segments as the server sends it to its
// owner: stride-sampled down to limit points.
func thinned(n, limit int, spacing float64) protocol.PlayerState {
	body := motion.NewBody(motion.Point{}, 0, n, spacing)
	return protocol.PlayerState{
		ID:       "me",
		Segments: protocol.FromPoints(game.Compress(body.Segments, limit)),
		Length:   n,
		Alive:    true,
	}
}

func TestPredictorRebuildsThinnedTrail(t *testing.T) {
	st := thinned(600, 256, 3)
	if len(st.Segments) != 256 {
		t.Fatalf("expected 256 wire points, got %d", len(st.Segments))
	}

	p := NewPredictor(testRules, 60)
	p.Seed(st)
	before := p.Body()
	if before.Len() != 600 {
		t.Fatalf("expected full length 600, got %d", before.Len())
	}
	for j, seg := range before.Segments {
		if math.Abs(seg.X+3*float64(j)) > 1e-9 || seg.Y != 0 {
			t.Fatalf("segment %d rebuilt at %v, want (%v,0)", j, seg, -3*float64(j))
		}
	}

	p.Advance(time.Second / 60)
	body := p.Body()
	if body.Len() != 600 {
		t.Fatalf("expected length 600 after a step, got %d", body.Len())
	}
	if moved := body.Tail().X - before.Tail().X; math.Abs(moved-3) > 1e-9 {
		t.Errorf("tail should move one speed step of 3, moved %v", moved)
	}
	for i, want := range []float64{3, 0, -3, -6} {
		if math.Abs(body.Segments[i].X-want) > 1e-9 {
			t.Errorf("segment %d at %v, want x=%v", i, body.Segments[i], want)
		}
	}
}

func TestReconcileAgainstThinnedRecord(t *testing.T) {
	st := thinned(600, 256, 3)
	p := NewPredictor(testRules, 60)
	p.Seed(st)
	p.Reconcile(st)

	body := p.Body()
	if body.Len() != 600 {
		t.Fatalf("reconcile should keep the full length, got %d", body.Len())
	}
	if math.Abs(body.Segments[300].X+900) > 1e-9 {
		t.Errorf("matching record should leave segment 300 at -900, got %v", body.Segments[300])
	}
}

func TestBodyAccessorsOnValues(t *testing.T) {
	p := NewPredictor(testRules, 60)
	p.Seed(straight(motion.Point{X: 7}, 4))
	if p.Body().Head().X != 7 || p.Body().Len() != 4 || p.Body().Tail().X != 7-45 {
		t.Errorf("unexpected body %v", p.Body().Segments)
	}
}
