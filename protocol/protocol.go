// Package protocol defines the messages exchanged between arena clients and
// the server.
package protocol

import (
	"encoding/json"

	"arena-server/motion"
)

// Client -> Server message types
const (
	MsgJoin  = "join"
	MsgInput = "input"
	MsgLeave = "leave"
)

// Server -> Client message types
const (
	MsgJoined    = "joined"
	MsgState     = "gameState" // sent as a binary msgpack frame
	MsgDied      = "died"
	MsgRespawned = "respawned"
	MsgError     = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D is decoded per type
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to enter the arena
type JoinMsg struct {
	Name string `json:"name"`
}

// InputMsg carries steering input. Absent fields leave the current value alone.
type InputMsg struct {
	Angle    *float64 `json:"angle,omitempty"`
	Boosting *bool    `json:"boosting,omitempty"`
}

// PlayerState is the wire form of a player
type PlayerState struct {
	ID       string       `json:"id" msgpack:"id"`
	Name     string       `json:"name" msgpack:"n"`
	Color    string       `json:"color" msgpack:"c"`
	Segments [][2]float64 `json:"segments" msgpack:"s"`
	Length   int          `json:"length" msgpack:"l"` // stored segment count, before compression
	Angle    float64      `json:"angle" msgpack:"a"`
	Score    int          `json:"score" msgpack:"sc"`
	Alive    bool         `json:"alive" msgpack:"al"`
	Boosting bool         `json:"boosting,omitempty" msgpack:"b,omitempty"`
}

// FoodState is the wire form of a food item
type FoodState struct {
	ID    uint64  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Color string  `json:"color" msgpack:"c"`
	Value int     `json:"value" msgpack:"v"`
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Name   string `json:"name" msgpack:"n"`
	Score  int    `json:"score" msgpack:"s"`
	Length int    `json:"length" msgpack:"l"`
}

// GameState is the per-connection world view
type GameState struct {
	Players         []PlayerState      `json:"players" msgpack:"p"`
	Food            []FoodState        `json:"food" msgpack:"f"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard" msgpack:"lb"`
	BoundaryRadius  float64            `json:"boundaryRadius" msgpack:"br"`
	ServerTimestamp int64              `json:"serverTimestamp" msgpack:"ts"` // unix millis
	Tick            uint64             `json:"tick" msgpack:"tick"`
}

// Player returns the state for id, if present
func (gs *GameState) Player(id string) (PlayerState, bool) {
	for _, p := range gs.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

// JoinedMsg is sent to a player when they join
type JoinedMsg struct {
	ID                 string      `json:"id"`
	Player             PlayerState `json:"player"`
	BoundaryRadius     float64     `json:"boundaryRadius"`
	SimulationTickRate int         `json:"simulationTickRate"`
	NetworkTickRate    int         `json:"networkTickRate"`
}

// DiedMsg notifies a player they died. Killer is nil for boundary and self deaths.
type DiedMsg struct {
	Score  int     `json:"score"`
	Killer *string `json:"killer"`
}

// RespawnedMsg carries the fresh authoritative player after a respawn
type RespawnedMsg struct {
	Player PlayerState `json:"player"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// FromPoints converts segments to wire pairs
func FromPoints(pts []motion.Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

// ToPoints converts wire pairs back to segments
func ToPoints(pairs [][2]float64) []motion.Point {
	out := make([]motion.Point, len(pairs))
	for i, p := range pairs {
		out[i] = motion.Point{X: p[0], Y: p[1]}
	}
	return out
}
