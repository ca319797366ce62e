package game

import (
	"testing"

	"arena-server/motion"
)

func TestCompress(t *testing.T) {
	segs := motion.NewBody(motion.Point{}, 0, 100, 1).Segments

	out := Compress(segs, 10)
	if len(out) != 10 {
		t.Fatalf("expected 10 points, got %d", len(out))
	}
	if out[0] != segs[0] || out[9] != segs[99] {
		t.Error("head and tail must survive compression")
	}
	// stride of 11 for 99 gaps over 9
	if out[1] != segs[11] {
		t.Errorf("expected even stride, got %v", out[1])
	}

	short := Compress(segs[:5], 10)
	if len(short) != 5 {
		t.Fatalf("expected pass-through, got %d", len(short))
	}
	short[0] = motion.Point{X: 42}
	if segs[0].X == 42 {
		t.Error("pass-through must copy")
	}

	if got := Compress(segs, 1); len(got) != 2 || got[1] != segs[99] {
		t.Errorf("limit below 2 should keep head and tail, got %v", got)
	}
}

func TestBuildViewFiltersFood(t *testing.T) {
	w := newTestWorld(testConfig())
	addAt(t, w, "a", motion.Point{}, 0)
	near := w.addFood(motion.Point{X: 100})
	edge := w.addFood(motion.Point{X: 799})
	far := w.addFood(motion.Point{X: 900})

	view, ok := BuildView(w, "a", 123)
	if !ok {
		t.Fatal("expected view for known player")
	}
	ids := map[uint64]bool{}
	for _, f := range view.Food {
		ids[f.ID] = true
	}
	if !ids[near.ID] || !ids[edge.ID] {
		t.Error("food inside view distance missing")
	}
	if ids[far.ID] {
		t.Error("food beyond view distance included")
	}
	if view.ServerTimestamp != 123 || view.BoundaryRadius != w.cfg.BoundaryRadius {
		t.Errorf("unexpected header %+v", view)
	}
}

func TestBuildViewFiltersPlayers(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)
	addAt(t, w, "a", motion.Point{}, 0)
	addAt(t, w, "edge", motion.Point{X: 1200}, 0)
	addAt(t, w, "far", motion.Point{Y: 1201}, 0)
	dead := addAt(t, w, "dead", motion.Point{X: 50}, 0)
	dead.Alive = false
	big := addAt(t, w, "big", motion.Point{Y: -300}, 0)
	for big.Len() < 100 {
		big.Grow()
	}

	view, _ := BuildView(w, "a", 0)
	if len(view.Players) != 3 {
		t.Fatalf("expected viewer, edge and big, got %d players", len(view.Players))
	}
	if view.Players[0].ID != "a" {
		t.Error("viewer must come first")
	}
	if _, ok := view.Player("edge"); !ok {
		t.Error("player exactly at the visibility radius missing")
	}
	if _, ok := view.Player("far"); ok {
		t.Error("player beyond the visibility radius included")
	}
	if _, ok := view.Player("dead"); ok {
		t.Error("dead players are not shown to others")
	}
	st, _ := view.Player("big")
	if len(st.Segments) != cfg.OtherSegmentCap || st.Length != 100 {
		t.Errorf("expected %d wire segments of 100, got %d of %d", cfg.OtherSegmentCap, len(st.Segments), st.Length)
	}
}

func TestBuildViewIncludesDeadViewer(t *testing.T) {
	w := newTestWorld(testConfig())
	p := addAt(t, w, "a", motion.Point{}, 0)
	p.Alive = false

	view, ok := BuildView(w, "a", 0)
	if !ok || len(view.Players) != 1 || view.Players[0].Alive {
		t.Fatalf("expected the dead viewer in its own view, got %+v", view.Players)
	}
	if _, ok := BuildView(w, "ghost", 0); ok {
		t.Error("unknown viewer should have no view")
	}
}
