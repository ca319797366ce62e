// Package game runs the authoritative arena simulation: the world model,
// collisions, respawns and the per-connection snapshots.
package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"arena-server/protocol"
)

// ErrStopped is returned by Join once the loop has been stopped
var ErrStopped = errors.New("game stopped")

// Broadcaster is one connection's outbound side. Both methods must not
// block the game loop.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Stats is a point-in-time summary published after every tick
type Stats struct {
	Tick        uint64                      `json:"tick"`
	Players     int                         `json:"players"`
	Alive       int                         `json:"alive"`
	Food        int                         `json:"food"`
	Connections int                         `json:"connections"`
	TickCost    time.Duration               `json:"tickCostNs"`
	Leaderboard []protocol.LeaderboardEntry `json:"leaderboard"`
}

// Game owns the world and the connections attached to it
type Game struct {
	mu      sync.Mutex
	cfg     Config
	world   *World
	clients map[string]Broadcaster // playerID -> client
	sink    EventSink
	now     func() time.Time

	running bool
	stopped bool
	stop    chan struct{}
	stats   atomic.Pointer[Stats]
}

// NewGame creates a game with a time-seeded world. sink may be nil.
func NewGame(cfg Config, sink EventSink) *Game {
	seed := uint64(time.Now().UnixNano())
	return NewGameWithRand(cfg, sink, rand.New(rand.NewPCG(seed, seed>>1)))
}

// NewGameWithRand creates a game whose world draws from rng
func NewGameWithRand(cfg Config, sink EventSink, rng *rand.Rand) *Game {
	if sink == nil {
		sink = nopSink{}
	}
	g := &Game{
		cfg:     cfg,
		world:   NewWorld(cfg, rng),
		clients: make(map[string]Broadcaster),
		sink:    sink,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	g.publish(0)
	return g
}

// Config returns the game tuning
func (g *Game) Config() Config {
	return g.cfg
}

// Run starts the game loop and blocks until Stop
func (g *Game) Run() {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(g.cfg.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		g.running = false
		close(g.stop)
	}
}

// Join adds a player for client. The joined message reaches client before
// any snapshot does.
func (g *Game) Join(name string, client Broadcaster) (protocol.JoinedMsg, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return protocol.JoinedMsg{}, ErrStopped
	}

	p, err := g.world.AddPlayer(uuid.NewString(), name, g.now())
	if err != nil {
		return protocol.JoinedMsg{}, fmt.Errorf("join: %w", err)
	}
	joined := protocol.JoinedMsg{
		ID:                 p.ID,
		Player:             p.ToState(g.cfg.SelfSegmentCap),
		BoundaryRadius:     g.cfg.BoundaryRadius,
		SimulationTickRate: g.cfg.TickRate,
		NetworkTickRate:    g.cfg.NetworkRate,
	}
	if client != nil {
		client.SendJSON(protocol.Envelope{T: protocol.MsgJoined, Data: joined})
		g.clients[p.ID] = client
	}
	return joined, nil
}

// Input queues steering input for the next tick
func (g *Game) Input(playerID string, in protocol.InputMsg) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.QueueInput(playerID, in, g.now())
}

// Leave removes a player whose connection went away
func (g *Game) Leave(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, playerID)
	return g.world.RemovePlayer(playerID, ReasonDisconnect)
}

// Kick removes a player on operator request
func (g *Game) Kick(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.world.RemovePlayer(playerID, ReasonKicked); err != nil {
		return err
	}
	if c, ok := g.clients[playerID]; ok {
		c.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Msg: "kicked"}})
		delete(g.clients, playerID)
	}
	return nil
}

// Stats returns the summary of the last tick without taking the game lock
func (g *Game) Stats() Stats {
	return *g.stats.Load()
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	events := g.world.Step(g.now())
	g.dispatch(events)

	if g.world.Tick()%g.cfg.BroadcastEvery() == 0 {
		g.broadcastState()
	}
	g.publish(time.Since(start))
}

// dispatch turns world events into per-connection notifications
func (g *Game) dispatch(events []Event) {
	for _, evt := range events {
		g.sink.Track(evt)
		client, ok := g.clients[evt.PlayerID]
		if !ok {
			continue
		}
		switch evt.Kind {
		case EventDeath:
			died := protocol.DiedMsg{Score: evt.Score}
			if evt.KillerID != "" {
				name := evt.KillerName
				died.Killer = &name
			}
			client.SendJSON(protocol.Envelope{T: protocol.MsgDied, Data: died})
		case EventRespawn:
			client.SendJSON(protocol.Envelope{T: protocol.MsgRespawned, Data: protocol.RespawnedMsg{
				Player: evt.Player.ToState(g.cfg.SelfSegmentCap),
			}})
		case EventLeave:
			if evt.Cause == ReasonIdle {
				client.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Msg: "idle timeout"}})
			}
			delete(g.clients, evt.PlayerID)
		}
	}
}

// broadcastState sends every connection its own view. Views are built in
// parallel; the world is not written until all of them finish.
func (g *Game) broadcastState() {
	ts := g.now().UnixMilli()
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for _, id := range g.world.order {
		client, ok := g.clients[id]
		if !ok {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			view, ok := BuildView(g.world, id, ts)
			if !ok {
				return
			}
			data, err := protocol.EncodeState(&view)
			if err != nil {
				log.Printf("state for %s: %v", id, err)
				return
			}
			client.SendBinary(data)
		}()
	}
	wg.Wait()
}

func (g *Game) publish(cost time.Duration) {
	g.stats.Store(&Stats{
		Tick:        g.world.Tick(),
		Players:     g.world.PlayerCount(),
		Alive:       g.world.AliveCount(),
		Food:        g.world.FoodCount(),
		Connections: len(g.clients),
		TickCost:    cost,
		Leaderboard: g.world.Leaderboard(),
	})
}
