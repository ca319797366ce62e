package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"arena-server/motion"
	"arena-server/protocol"
	"arena-server/spatial"
)

var (
	// ErrGameFull is returned when MaxPlayers are already in the arena
	ErrGameFull = errors.New("game full")
	// ErrDuplicatePlayer is returned when a player ID is already taken
	ErrDuplicatePlayer = errors.New("player already joined")
	// ErrNotFound is returned for operations on unknown players
	ErrNotFound = errors.New("player not found")
)

const maxNameLen = 16

// World is the whole authoritative simulation state. It has a single
// writer: whoever calls Step and the table operations, between ticks.
// BuildView may run concurrently with other BuildView calls but never with
// a writer.
type World struct {
	cfg   Config
	rules motion.Rules
	rng   *rand.Rand

	tick uint64
	now  time.Time

	players map[string]*Player
	order   []string // player IDs in join order
	nextSeq uint64
	pending map[string]protocol.InputMsg

	food     map[uint64]*Food
	foodGrid *spatial.Grid[uint64]
	nextFood uint64

	respawns    []*respawnTicket
	leaderboard []protocol.LeaderboardEntry
	events      []Event
	queryBuf    []uint64
}

// NewWorld builds an arena with cfg.FoodCount food scattered inside it
func NewWorld(cfg Config, rng *rand.Rand) *World {
	w := &World{
		cfg:         cfg,
		rules:       cfg.Rules(),
		rng:         rng,
		players:     make(map[string]*Player),
		pending:     make(map[string]protocol.InputMsg),
		food:        make(map[uint64]*Food),
		foodGrid:    spatial.NewGrid[uint64](cfg.GridCellSize),
		leaderboard: []protocol.LeaderboardEntry{},
	}
	for i := 0; i < cfg.FoodCount; i++ {
		w.spawnFood()
	}
	return w
}

// Config returns the tuning the world runs with
func (w *World) Config() Config {
	return w.cfg
}

// Tick returns the number of completed simulation ticks
func (w *World) Tick() uint64 {
	return w.tick
}

// Player looks up a player by ID
func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// Players returns all players in join order
func (w *World) Players() []*Player {
	out := make([]*Player, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.players[id])
	}
	return out
}

// PlayerCount returns the number of players, alive or dead
func (w *World) PlayerCount() int {
	return len(w.players)
}

// AliveCount returns the number of living players
func (w *World) AliveCount() int {
	n := 0
	for _, p := range w.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// FoodCount returns the number of food items in the arena
func (w *World) FoodCount() int {
	return len(w.food)
}

// Food looks up a food item by ID
func (w *World) Food(id uint64) (*Food, bool) {
	f, ok := w.food[id]
	return f, ok
}

// AddPlayer creates a player at connection time. now starts the idle clock.
func (w *World) AddPlayer(id, name string, now time.Time) (*Player, error) {
	if _, ok := w.players[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
	}
	if w.cfg.MaxPlayers > 0 && len(w.players) >= w.cfg.MaxPlayers {
		return nil, ErrGameFull
	}
	w.nextSeq++
	color := Colors[w.rng.IntN(len(Colors))]
	p := NewPlayer(id, SanitizeName(name, id), color, w.nextSeq, w.cfg, w.rng)
	p.LastInput = now
	w.players[id] = p
	w.order = append(w.order, id)
	w.emit(Event{Kind: EventJoin, PlayerID: id, Name: p.Name, Length: p.Len()})
	return p, nil
}

// RemovePlayer drops a player at disconnect time. A living body leaves
// food on every third segment; a pending respawn is canceled.
func (w *World) RemovePlayer(id, reason string) error {
	p, ok := w.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if p.Alive {
		for i := 0; i < p.Len(); i += 3 {
			w.dropFood(p.Segments[i])
		}
	}
	p.respawn.Cancel()
	delete(w.players, id)
	delete(w.pending, id)
	w.order = slices.DeleteFunc(w.order, func(v string) bool { return v == id })
	w.emit(Event{Kind: EventLeave, PlayerID: id, Name: p.Name, Score: p.Score, Length: p.Len(), Cause: reason})
	return nil
}

// QueueInput buffers input for the start of the next tick. Fields merge
// with input already queued this tick. Input counts as activity even while
// the player waits to respawn.
func (w *World) QueueInput(id string, in protocol.InputMsg, now time.Time) bool {
	p, ok := w.players[id]
	if !ok {
		return false
	}
	p.LastInput = now
	q := w.pending[id]
	if in.Angle != nil {
		q.Angle = in.Angle
	}
	if in.Boosting != nil {
		q.Boosting = in.Boosting
	}
	w.pending[id] = q
	return true
}

// Step advances the simulation by one tick. It returns the events it
// produced together with joins and leaves since the previous Step.
func (w *World) Step(now time.Time) []Event {
	w.tick++
	w.now = now

	w.applyInputs()
	w.fireRespawns()
	for _, id := range w.order {
		if p := w.players[id]; p != nil && p.Alive {
			w.updateSafe(p)
		}
	}
	w.reapIdle()
	w.updateLeaderboard()
	return w.TakeEvents()
}

// TakeEvents returns and clears the pending event log
func (w *World) TakeEvents() []Event {
	evts := w.events
	w.events = nil
	return evts
}

func (w *World) emit(evt Event) {
	evt.Tick = w.tick
	w.events = append(w.events, evt)
}

// applyInputs applies buffered input to living players; input for the dead
// is discarded
func (w *World) applyInputs() {
	for id, in := range w.pending {
		if p, ok := w.players[id]; ok && p.Alive {
			p.applyInput(in, w.now)
		}
	}
	clear(w.pending)
}

// updateSafe isolates a faulty player so the shared tick goes on
func (w *World) updateSafe(p *Player) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("player %s update failed: %v", p.ID, r)
			w.isolate(p)
		}
	}()
	w.updatePlayer(p)
	if p.Alive {
		w.checkCollisions(p)
	}
}

func (w *World) isolate(p *Player) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("player %s cleanup failed: %v", p.ID, r)
			p.Alive = false
		}
	}()
	if p.Alive {
		w.kill(p, nil, CauseFault)
	}
}

// updatePlayer runs heading, speed, boost cost, movement and the boundary
// check for one living player
func (w *World) updatePlayer(p *Player) {
	head := motion.Step(&p.Body, w.rules, func(b *motion.Body) {
		w.payBoost(p)
	})
	r := w.cfg.BoundaryRadius
	if head.X*head.X+head.Y*head.Y > r*r {
		w.kill(p, nil, CauseBoundary)
		return
	}
	p.Push(head)
}

// payBoost sheds a tail segment into food with BoostDropChance per tick
func (w *World) payBoost(p *Player) {
	if !p.Boosting || p.Len() <= w.cfg.InitialLength {
		return
	}
	if w.rng.Float64() >= w.cfg.BoostDropChance {
		return
	}
	tail, ok := p.PopTail()
	if !ok {
		return
	}
	w.dropFood(tail)
	p.Score = max(0, p.Score-1)
}

// kill moves p from Alive to Dead exactly once. Every other segment turns
// into food and the killer, if any, takes half the victim's score.
func (w *World) kill(p, killer *Player, cause string) {
	if !p.Alive {
		return
	}
	p.Alive = false
	p.Boosting = false
	for i := 0; i < p.Len(); i += 2 {
		w.dropFood(p.Segments[i])
	}
	evt := Event{Kind: EventDeath, PlayerID: p.ID, Name: p.Name, Score: p.Score, Length: p.Len(), Cause: cause}
	if killer != nil {
		evt.Gain = p.Score / 2
		killer.Score += evt.Gain
		evt.KillerID = killer.ID
		evt.KillerName = killer.Name
	}
	w.scheduleRespawn(p)
	w.emit(evt)
}

// reapIdle removes players that sent no input for IdleTimeout
func (w *World) reapIdle() {
	if w.cfg.IdleTimeout <= 0 {
		return
	}
	var idle []string
	for _, id := range w.order {
		if p := w.players[id]; p != nil && w.now.Sub(p.LastInput) > w.cfg.IdleTimeout {
			idle = append(idle, id)
		}
	}
	for _, id := range idle {
		_ = w.RemovePlayer(id, ReasonIdle)
	}
}

// SanitizeName trims and truncates a display name, falling back to
// "Player xxxx" built from the ID
func SanitizeName(name, id string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	if name == "" {
		short := id
		if len(short) > 4 {
			short = short[:4]
		}
		name = "Player " + short
	}
	return name
}
