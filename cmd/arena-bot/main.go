// Command arena-bot connects wandering bots to an arena server for load
// and soak testing.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arena-server/client"
	"arena-server/game"
)

var (
	serverURL string
	botCount  int
	duration  time.Duration
	namePrefix string
	boostOdds float64
)

var rootCmd = &cobra.Command{
	Use:   "arena-bot",
	Short: "Drive bots against an arena server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		if duration > 0 {
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		var wg sync.WaitGroup
		for i := 0; i < botCount; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				name := fmt.Sprintf("%s%d", namePrefix, n)
				if err := runBot(ctx, name); err != nil && ctx.Err() == nil {
					log.Printf("%s: %v", name, err)
				}
			}(i + 1)
			time.Sleep(20 * time.Millisecond)
		}
		wg.Wait()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8080/ws", "Server WebSocket URL.")
	rootCmd.PersistentFlags().IntVar(&botCount, "bots", 10, "Number of bots.")
	rootCmd.PersistentFlags().DurationVar(&duration, "duration", 0, "Stop after this long; 0 runs until interrupted.")
	rootCmd.PersistentFlags().StringVar(&namePrefix, "name", "bot", "Bot name prefix.")
	rootCmd.PersistentFlags().Float64Var(&boostOdds, "boost", 0.05, "Chance per decision to toggle boost.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// bot wanders with a slowly drifting heading and turns home near the edge
type bot struct {
	rng      *rand.Rand
	heading  float64
	boosting bool
}

func (b *bot) steer(f client.Frame) (float64, bool) {
	b.heading += (b.rng.Float64() - 0.5) * 0.4
	if b.rng.Float64() < boostOdds {
		b.boosting = !b.boosting
	}
	if f.Self == nil || len(f.Self.Segments) == 0 || f.BoundaryRadius == 0 {
		return b.heading, false
	}
	head := f.Self.Segments[0]
	if math.Hypot(head[0], head[1]) > f.BoundaryRadius*0.8 {
		b.heading = math.Atan2(-head[1], -head[0])
		return b.heading, false
	}
	return b.heading, b.boosting
}

func runBot(ctx context.Context, name string) error {
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

	b := &bot{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), heading: rand.Float64() * 2 * math.Pi}
	var throttle client.InputThrottle
	wasAlive := false
	ticker := time.NewTicker(client.InputInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Leave()
			return nil
		case err := <-readErr:
			return err
		case now := <-ticker.C:
			if msg := sess.LastError(); msg != "" {
				return fmt.Errorf("server: %s", msg)
			}
			f := sess.Frame(now)
			if f.Alive != wasAlive {
				logTransition(name, f.Alive, sess)
				wasAlive = f.Alive
			}
			if !f.Alive {
				continue
			}
			angle, boosting := b.steer(f)
			sess.SetInput(angle, boosting)
			if throttle.Allow(angle, boosting, now) {
				if err := conn.SendInput(angle, boosting); err != nil {
					return err
				}
			}
		}
	}
}

func logTransition(name string, alive bool, sess *client.Session) {
	if alive {
		log.Printf("%s: spawned as %s", name, sess.ID())
		return
	}
	d := sess.LastDeath()
	if d == nil {
		return
	}
	killer := "the arena"
	if d.Killer != nil {
		killer = *d.Killer
	}
	log.Printf("%s: died with score %d, killed by %s", name, d.Score, killer)
}
