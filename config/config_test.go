package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arena-server/game"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" || cfg.MaxPerIP != 5 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Game.TickRate != 60 || cfg.Game.NetworkRate != 20 || cfg.Game.BoundaryRadius != 2000 {
		t.Errorf("unexpected game defaults %+v", cfg.Game)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("ARENA_RADIUS", "1500")
	t.Setenv("RESPAWN_DELAY", "5s")
	t.Setenv("MAX_PLAYERS", "oops")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.Addr)
	}
	if cfg.Game.BoundaryRadius != 1500 || cfg.Game.RespawnDelay != 5*time.Second {
		t.Errorf("overrides not applied: %+v", cfg.Game)
	}
	if cfg.Game.MaxPlayers != game.DefaultConfig().MaxPlayers {
		t.Errorf("bad value should fall back, got %d", cfg.Game.MaxPlayers)
	}
}

func TestFromEnvRejectsBadGameConfig(t *testing.T) {
	t.Setenv("NETWORK_RATE", "7")
	if _, err := FromEnv(); !errors.Is(err, game.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("PUBLIC_URL=http://arena.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PUBLIC_URL", "")
	os.Unsetenv("PUBLIC_URL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PublicURL != "http://arena.example" {
		t.Errorf("expected value from file, got %s", cfg.PublicURL)
	}
	os.Unsetenv("PUBLIC_URL")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be tolerated: %v", err)
	}
}
