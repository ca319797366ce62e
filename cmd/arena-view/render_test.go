package main

import (
	"math"
	"testing"

	"github.com/gdamore/tcell/v2"

	"arena-server/client"
	"arena-server/protocol"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func TestCameraProjectRoundTrip(t *testing.T) {
	cam := camera{cx: 100, cy: -50, scale: 10, w: 80, h: 24}
	col, row, ok := cam.project(100, -50)
	if !ok || col != 40 || row != 12 {
		t.Fatalf("center projected to (%d,%d,%v)", col, row, ok)
	}
	x, y := cam.unproject(col, row)
	if math.Abs(x-105) > 1e-9 || math.Abs(y-(-40)) > 1e-9 {
		t.Errorf("unproject = (%v,%v)", x, y)
	}
	if _, _, ok := cam.project(100+41*10, -50); ok {
		t.Error("point past the right edge should be off screen")
	}
}

func TestDrawFollowsSelf(t *testing.T) {
	screen := newScreen(t)
	self := protocol.PlayerState{
		ID:       "me",
		Color:    "#2ecc71",
		Segments: [][2]float64{{500, 500}, {490, 500}},
		Alive:    true,
	}
	f := client.Frame{
		ID:             "me",
		Self:           &self,
		Alive:          true,
		BoundaryRadius: 2000,
		Food:           []protocol.FoodState{{X: 500, Y: 540, Color: "#e74c3c"}},
	}

	cam := draw(screen, camera{scale: 10}, f)
	if cam.cx != 500 || cam.cy != 500 {
		t.Fatalf("camera should follow head, at (%v,%v)", cam.cx, cam.cy)
	}

	if r, _, _, _ := screen.GetContent(40, 12); r != 'O' {
		t.Errorf("expected head at center, got %q", r)
	}
	if r, _, _, _ := screen.GetContent(39, 12); r != '#' {
		t.Errorf("expected body left of head, got %q", r)
	}
	if r, _, _, _ := screen.GetContent(40, 14); r != '·' {
		t.Errorf("expected food below head, got %q", r)
	}
}

func TestDrawBoundaryAndDeath(t *testing.T) {
	screen := newScreen(t)
	cam := draw(screen, camera{cx: 1990, cy: 0, scale: 10}, client.Frame{
		ID:             "me",
		BoundaryRadius: 2000,
	})

	// (40,5) maps to about (1995,-130), just inside the edge and above the
	// death notice row
	if r, _, _, _ := screen.GetContent(40, 5); r != '░' {
		t.Errorf("expected boundary above center, got %q", r)
	}
	msg := "you died, respawning..."
	if r, _, _, _ := screen.GetContent((cam.w-len(msg))/2, cam.h/2); r != 'y' {
		t.Errorf("expected death notice, got %q", r)
	}
}
