package game

import (
	"math"
	"math/rand/v2"
	"time"

	"arena-server/motion"
	"arena-server/protocol"
)

// Player represents a snake in the arena. The simulation owns it: a respawn
// builds a new Player with the same ID, name, color and join order.
type Player struct {
	ID    string
	Name  string
	Color string
	motion.Body
	Score     int
	Alive     bool
	LastInput time.Time
	JoinSeq   uint64 // join order, the tie-break for every per-tick iteration

	respawn *respawnTicket
}

// NewPlayer creates a live player at a random position and heading inside
// the inner half of the arena
func NewPlayer(id, name, color string, seq uint64, cfg Config, rng *rand.Rand) *Player {
	spawnAngle := rng.Float64() * 2 * math.Pi
	r := rng.Float64() * cfg.BoundaryRadius / 2
	origin := motion.Point{X: math.Cos(spawnAngle) * r, Y: math.Sin(spawnAngle) * r}
	heading := motion.NormalizeAngle(rng.Float64()*2*math.Pi - math.Pi)
	return &Player{
		ID:      id,
		Name:    name,
		Color:   color,
		Body:    motion.NewBody(origin, heading, cfg.InitialLength, cfg.SegmentSpacing),
		Alive:   true,
		JoinSeq: seq,
	}
}

// ToState converts to protocol state, down-sampling the body to maxSegs
func (p *Player) ToState(maxSegs int) protocol.PlayerState {
	return protocol.PlayerState{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		Segments: protocol.FromPoints(Compress(p.Segments, maxSegs)),
		Length:   len(p.Segments),
		Angle:    p.Angle,
		Score:    p.Score,
		Alive:    p.Alive,
		Boosting: p.Boosting,
	}
}

// Entry returns the leaderboard row for p
func (p *Player) Entry() protocol.LeaderboardEntry {
	return protocol.LeaderboardEntry{Name: p.Name, Score: p.Score, Length: len(p.Segments)}
}

func (p *Player) applyInput(in protocol.InputMsg, now time.Time) {
	if in.Angle != nil && motion.Finite(*in.Angle) {
		p.TargetAngle = motion.NormalizeAngle(*in.Angle)
	}
	if in.Boosting != nil {
		p.Boosting = *in.Boosting
	}
	p.LastInput = now
}
