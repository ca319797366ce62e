// Package client is the player side of the arena protocol: it predicts the
// local snake, reconciles it with the server and interpolates everybody
// else between snapshots.
package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"arena-server/motion"
	"arena-server/protocol"
)

// Frame is everything a renderer needs for one picture
type Frame struct {
	ID             string
	Self           *protocol.PlayerState // predicted; nil while dead or not joined
	Others         []protocol.PlayerState
	Food           []protocol.FoodState
	Leaderboard    []protocol.LeaderboardEntry
	BoundaryRadius float64
	Alive          bool
	Score          int
	Tick           uint64
}

// Session tracks one player's view of the arena
type Session struct {
	mu        sync.Mutex
	id        string
	boundary  float64
	alive     bool
	joined    bool
	angle     float64
	boosting  bool
	lastFrame time.Time
	lastDeath *protocol.DiedMsg
	lastError string

	buf  *SnapshotBuffer
	pred *Predictor
}

// NewSession creates a session predicting with rules until the server
// announces its tick rates
func NewSession(rules motion.Rules) *Session {
	return &Session{
		buf:  NewSnapshotBuffer(time.Second / 20),
		pred: NewPredictor(rules, 60),
	}
}

// ID returns the player ID assigned by the server
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Alive reports whether the local player is alive
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// LastDeath returns the most recent died message, if any
func (s *Session) LastDeath() *protocol.DiedMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDeath
}

// LastError returns the last error message from the server
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// HandleMessage applies a JSON envelope from the server
func (s *Session) HandleMessage(data []byte) error {
	var env protocol.InEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch env.T {
	case protocol.MsgJoined:
		var msg protocol.JoinedMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.T, err)
		}
		s.id = msg.ID
		s.boundary = msg.BoundaryRadius
		s.joined = true
		s.alive = true
		if msg.NetworkTickRate > 0 {
			s.buf.SetInterval(time.Second / time.Duration(msg.NetworkTickRate))
		}
		s.pred.SetTickRate(msg.SimulationTickRate)
		s.seed(msg.Player)
	case protocol.MsgDied:
		var msg protocol.DiedMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.T, err)
		}
		s.alive = false
		s.lastDeath = &msg
		s.pred.Reset()
	case protocol.MsgRespawned:
		var msg protocol.RespawnedMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.T, err)
		}
		s.alive = true
		s.seed(msg.Player)
	case protocol.MsgError:
		var msg protocol.ErrorMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.T, err)
		}
		s.lastError = msg.Msg
	}
	return nil
}

// HandleState buffers a snapshot received at now
func (s *Session) HandleState(gs *protocol.GameState, now time.Time) {
	s.buf.Push(gs, now)
	if gs.BoundaryRadius > 0 {
		s.mu.Lock()
		s.boundary = gs.BoundaryRadius
		s.mu.Unlock()
	}
}

// SetInput records the steering the local player wants
func (s *Session) SetInput(angle float64, boosting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle = angle
	s.boosting = boosting
	s.pred.SetInput(angle, boosting)
}

// Frame advances the prediction to now and returns what to draw
func (s *Session) Frame(now time.Time) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := time.Duration(0)
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame)
	}
	s.lastFrame = now

	prev, cur, frac := s.buf.Snapshot(now)
	f := Frame{ID: s.id, BoundaryRadius: s.boundary, Alive: s.alive}
	if cur == nil {
		return f
	}
	f.Food = cur.Food
	f.Leaderboard = cur.Leaderboard
	f.Tick = cur.Tick
	f.Others = Interpolate(prev, cur, frac, s.id)

	auth, ok := cur.Player(s.id)
	if !ok {
		return f
	}
	f.Score = auth.Score
	if !s.alive || !auth.Alive {
		return f
	}
	if !s.pred.Active() {
		s.seed(auth)
	}
	s.pred.Advance(dt)
	s.pred.Reconcile(auth)

	body := s.pred.Body()
	self := auth
	self.Segments = protocol.FromPoints(body.Segments)
	self.Angle = body.Angle
	self.Boosting = s.boosting
	f.Self = &self
	return f
}

// PredictedHead returns the local head position, if predicting
func (s *Session) PredictedHead() (motion.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pred.Active() {
		return motion.Point{}, false
	}
	body := s.pred.Body()
	return body.Head(), true
}

func (s *Session) seed(st protocol.PlayerState) {
	s.pred.Seed(st)
	s.pred.SetInput(s.angle, s.boosting)
}
