package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"arena-server/client"
	"arena-server/protocol"
)

// cells are roughly twice as tall as wide
const cellAspect = 2.0

var (
	hudStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	deadStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// camera maps world units to terminal cells around a center point
type camera struct {
	cx, cy float64
	scale  float64 // world units per column
	w, h   int
}

func (c camera) project(x, y float64) (int, int, bool) {
	col := int(math.Floor((x-c.cx)/c.scale)) + c.w/2
	row := int(math.Floor((y-c.cy)/(c.scale*cellAspect))) + c.h/2
	return col, row, col >= 0 && row >= 0 && col < c.w && row < c.h
}

// unproject returns the world point under a cell's center
func (c camera) unproject(col, row int) (float64, float64) {
	x := c.cx + (float64(col-c.w/2)+0.5)*c.scale
	y := c.cy + (float64(row-c.h/2)+0.5)*c.scale*cellAspect
	return x, y
}

func colorStyle(hex string) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.GetColor(hex))
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// draw renders one frame. The camera follows the local head while alive
// and the last known center otherwise.
func draw(s tcell.Screen, cam camera, f client.Frame) camera {
	s.Clear()
	cam.w, cam.h = s.Size()
	if f.Self != nil && len(f.Self.Segments) > 0 {
		cam.cx, cam.cy = f.Self.Segments[0][0], f.Self.Segments[0][1]
	}

	drawBoundary(s, cam, f.BoundaryRadius)
	for _, food := range f.Food {
		if col, row, ok := cam.project(food.X, food.Y); ok {
			s.SetContent(col, row, '·', nil, colorStyle(food.Color))
		}
	}
	for _, p := range f.Others {
		drawSnake(s, cam, p, 'o', '@')
	}
	if f.Self != nil {
		drawSnake(s, cam, *f.Self, '#', 'O')
	}

	drawText(s, 0, 0, hudStyle, fmt.Sprintf("score %d  tick %d", f.Score, f.Tick))
	for i, e := range f.Leaderboard {
		line := fmt.Sprintf("%2d %-16s %5d", i+1, e.Name, e.Score)
		drawText(s, cam.w-len([]rune(line)), i, hudStyle, line)
	}
	if !f.Alive && f.ID != "" {
		msg := "you died, respawning..."
		drawText(s, (cam.w-len(msg))/2, cam.h/2, deadStyle, msg)
	}
	s.Show()
	return cam
}

func drawSnake(s tcell.Screen, cam camera, p protocol.PlayerState, body, head rune) {
	style := colorStyle(p.Color)
	for i := len(p.Segments) - 1; i >= 0; i-- {
		col, row, ok := cam.project(p.Segments[i][0], p.Segments[i][1])
		if !ok {
			continue
		}
		r := body
		if i == 0 {
			r = head
		}
		s.SetContent(col, row, r, nil, style)
	}
}

// drawBoundary marks every cell the arena edge passes through
func drawBoundary(s tcell.Screen, cam camera, radius float64) {
	if radius <= 0 {
		return
	}
	for row := 0; row < cam.h; row++ {
		for col := 0; col < cam.w; col++ {
			x, y := cam.unproject(col, row)
			if math.Abs(math.Hypot(x, y)-radius) < cam.scale {
				s.SetContent(col, row, '░', nil, borderStyle)
			}
		}
	}
}
