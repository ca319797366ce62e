package game

import (
	"errors"
	"fmt"
	"math"
	"time"

	"arena-server/motion"
)

// ErrInvalidConfig is wrapped by Config.Validate failures
var ErrInvalidConfig = errors.New("invalid game config")

// Colors is the palette players and food are drawn from
var Colors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#9b59b6", "#f39c12",
	"#1abc9c", "#e91e63", "#00bcd4", "#ff5722", "#795548",
}

// Config holds every simulation tunable. Distances are world units, speeds
// are world units per simulation tick.
type Config struct {
	BoundaryRadius float64
	TickRate       int // simulation ticks per second
	NetworkRate    int // snapshots per second; must divide TickRate

	FoodCount  int     // food spawned when the world is built
	MaxFood    int     // ceiling for dropped food
	FoodValue  int
	FoodMargin float64 // keeps spawned food off the boundary
	DropJitter float64 // spread of dropped food around its source segment

	InitialLength  int
	SegmentSpacing float64
	BaseSpeed      float64
	BoostSpeed     float64
	TurnFactor     float64

	// BoostDropChance is the per-tick probability of shedding a tail
	// segment while boosting above InitialLength.
	BoostDropChance float64

	EatRadius          float64
	BodyHitRadius      float64
	SelfHitRadius      float64
	SelfCollisionStart int

	RespawnDelay    time.Duration
	LeaderboardSize int
	MaxPlayers      int
	IdleTimeout     time.Duration // 0 disables idle removal

	ViewDistance     float64 // food interest radius
	VisibilityRadius float64 // other-player interest radius
	SelfSegmentCap   int
	OtherSegmentCap  int
	GridCellSize     float64
}

// DefaultConfig returns the stock arena tuning
func DefaultConfig() Config {
	return Config{
		BoundaryRadius: 2000,
		TickRate:       60,
		NetworkRate:    20,

		FoodCount:  300,
		MaxFood:    3000,
		FoodValue:  1,
		FoodMargin: 100,
		DropJitter: 20,

		InitialLength:  10,
		SegmentSpacing: 15,
		BaseSpeed:      3,
		BoostSpeed:     6,
		TurnFactor:     0.1,

		BoostDropChance: 0.1,

		EatRadius:          20,
		BodyHitRadius:      15,
		SelfHitRadius:      10,
		SelfCollisionStart: 10,

		RespawnDelay:    3 * time.Second,
		LeaderboardSize: 10,
		MaxPlayers:      100,

		ViewDistance:     800,
		VisibilityRadius: 1200,
		SelfSegmentCap:   256,
		OtherSegmentCap:  64,
		GridCellSize:     100,
	}
}

// Validate reports the first inconsistent setting
func (c Config) Validate() error {
	switch {
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick rate %d", ErrInvalidConfig, c.TickRate)
	case c.NetworkRate <= 0 || c.NetworkRate > c.TickRate:
		return fmt.Errorf("%w: network rate %d", ErrInvalidConfig, c.NetworkRate)
	case c.TickRate%c.NetworkRate != 0:
		return fmt.Errorf("%w: network rate %d does not divide tick rate %d", ErrInvalidConfig, c.NetworkRate, c.TickRate)
	case c.BoundaryRadius <= c.FoodMargin:
		return fmt.Errorf("%w: boundary radius %v", ErrInvalidConfig, c.BoundaryRadius)
	case c.InitialLength < 1:
		return fmt.Errorf("%w: initial length %d", ErrInvalidConfig, c.InitialLength)
	case c.BoostDropChance < 0 || c.BoostDropChance > 1:
		return fmt.Errorf("%w: boost drop chance %v", ErrInvalidConfig, c.BoostDropChance)
	case c.SelfCollisionStart < 1:
		return fmt.Errorf("%w: self collision start %d", ErrInvalidConfig, c.SelfCollisionStart)
	case c.GridCellSize <= 0:
		return fmt.Errorf("%w: grid cell size %v", ErrInvalidConfig, c.GridCellSize)
	case c.SelfSegmentCap < 2 || c.OtherSegmentCap < 2:
		return fmt.Errorf("%w: segment caps must be at least 2", ErrInvalidConfig)
	}
	return nil
}

// BroadcastEvery is the number of simulation ticks per network tick
func (c Config) BroadcastEvery() uint64 {
	return uint64(c.TickRate / c.NetworkRate)
}

// TickDuration is the wall-clock length of one simulation tick
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// RespawnTicks converts RespawnDelay to whole simulation ticks
func (c Config) RespawnTicks() uint64 {
	return uint64(math.Ceil(c.RespawnDelay.Seconds() * float64(c.TickRate)))
}

// Rules returns the movement rules shared with clients
func (c Config) Rules() motion.Rules {
	return motion.Rules{
		TurnFactor: c.TurnFactor,
		BaseSpeed:  c.BaseSpeed,
		BoostSpeed: c.BoostSpeed,
	}
}

// maxLink bounds the distance between consecutive segments: initial layout
// uses SegmentSpacing, afterwards each link is one tick of travel.
func (c Config) maxLink() float64 {
	return math.Max(c.SegmentSpacing, math.Max(c.BaseSpeed, c.BoostSpeed))
}
