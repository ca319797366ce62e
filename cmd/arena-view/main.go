// Command arena-view plays the arena in a terminal. Arrow keys or the
// mouse steer, space toggles boost, Esc quits.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"arena-server/client"
	"arena-server/game"
	"arena-server/motion"
)

const turnStep = 0.2

var (
	serverURL string
	name      string
	zoom      float64
)

var rootCmd = &cobra.Command{
	Use:   "arena-view",
	Short: "Play the arena in a terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8080/ws", "Server WebSocket URL.")
	rootCmd.PersistentFlags().StringVar(&name, "name", "", "Player name.")
	rootCmd.PersistentFlags().Float64Var(&zoom, "zoom", 12, "World units per terminal column.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type player struct {
	angle    float64
	boosting bool
}

// handleInput applies an event and reports false when the user quits
func (p *player) handleInput(ev tcell.Event, cam camera) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			p.angle = motion.NormalizeAngle(p.angle - turnStep)
		case tcell.KeyRight:
			p.angle = motion.NormalizeAngle(p.angle + turnStep)
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				p.boosting = !p.boosting
			case 'q':
				return false
			}
		}
	case *tcell.EventMouse:
		col, row := ev.Position()
		x, y := cam.unproject(col, row)
		p.angle = math.Atan2(y-cam.cy, x-cam.cx)
	}
	return true
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := client.Dial(ctx, serverURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := client.NewSession(game.DefaultConfig().Rules())
	readErr := make(chan error, 1)
	go func() { readErr <- conn.ReadLoop(ctx, sess) }()
	if err := conn.Join(name); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(16 * time.Millisecond) // ~60 FPS
	defer ticker.Stop()

	var (
		me       player
		throttle client.InputThrottle
		cam      = camera{scale: zoom}
	)
	for {
		select {
		case ev := <-eventChan:
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
			if !me.handleInput(ev, cam) {
				conn.Leave()
				return nil
			}
		case err := <-readErr:
			return err
		case now := <-ticker.C:
			if msg := sess.LastError(); msg != "" {
				return fmt.Errorf("server: %s", msg)
			}
			sess.SetInput(me.angle, me.boosting)
			if sess.Alive() && throttle.Allow(me.angle, me.boosting, now) {
				if err := conn.SendInput(me.angle, me.boosting); err != nil {
					return err
				}
			}
			cam = draw(screen, cam, sess.Frame(now))
		}
	}
}
