// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"arena-server/game"
)

// Config holds server configuration loaded from environment variables
type Config struct {
	Addr      string
	GRPCAddr  string // empty disables the gRPC health service
	ClientDir string // static client files; empty serves none
	PublicURL string // encoded in the join QR code

	DBPath string

	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string

	MaxConnections int
	MaxPerIP       int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	Game game.Config
}

// Load reads files (default ".env") into the environment and builds the
// config. Missing files are fine; unparsable values fall back to defaults.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env: %w", err)
		}
		log.Printf("no .env file, using environment")
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment
func FromEnv() (Config, error) {
	gc := game.DefaultConfig()
	gc.BoundaryRadius = getFloat("ARENA_RADIUS", gc.BoundaryRadius)
	gc.TickRate = getInt("TICK_RATE", gc.TickRate)
	gc.NetworkRate = getInt("NETWORK_RATE", gc.NetworkRate)
	gc.FoodCount = getInt("FOOD_COUNT", gc.FoodCount)
	gc.MaxFood = getInt("MAX_FOOD", gc.MaxFood)
	gc.MaxPlayers = getInt("MAX_PLAYERS", gc.MaxPlayers)
	gc.RespawnDelay = getDuration("RESPAWN_DELAY", gc.RespawnDelay)
	gc.IdleTimeout = getDuration("IDLE_TIMEOUT", gc.IdleTimeout)
	gc.BoostDropChance = getFloat("BOOST_DROP_CHANCE", gc.BoostDropChance)
	gc.ViewDistance = getFloat("VIEW_DISTANCE", gc.ViewDistance)
	gc.VisibilityRadius = getFloat("VISIBILITY_RADIUS", gc.VisibilityRadius)
	if err := gc.Validate(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:              getEnv("ADDR", ":8080"),
		GRPCAddr:          getEnv("GRPC_ADDR", ""),
		ClientDir:         getEnv("CLIENT_DIR", ""),
		PublicURL:         getEnv("PUBLIC_URL", "http://localhost:8080"),
		DBPath:            getEnv("DB_PATH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		MaxConnections:    getInt("MAX_CONNECTIONS", 200),
		MaxPerIP:          getInt("MAX_CONNECTIONS_PER_IP", 5),
		ReadTimeout:       getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		Game:              gc,
	}
	if cfg.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET not set; admin tokens will not survive a restart")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return def
	}
	return d
}
